package config

// DefaultDatabasePath is the SQLite file used when no source is configured.
const DefaultDatabasePath = "./books.db"
