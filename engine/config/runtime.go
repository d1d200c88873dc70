package config

// Placeholder: a live-tunable runtime config surface (per-tenant rate
// limits, extraction policy swaps without a restart) was prototyped here
// and deliberately deferred — crawl sessions are short-lived enough that
// restart-to-reconfigure is an acceptable cost, and a mutable global config
// would complicate the tenant isolation guarantees in engine/tenant.
//
// Do NOT add exported types or functions here without updating
// config_allowlist_guard_test.go's allowlist.
