package store

const schema = `
CREATE TABLE IF NOT EXISTS destinations (
    name       TEXT PRIMARY KEY,
    region     TEXT NOT NULL DEFAULT '',
    data       TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_destinations_region ON destinations(region);

CREATE TABLE IF NOT EXISTS profiles (
    id         TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS places (
    id                 TEXT PRIMARY KEY,
    source             TEXT NOT NULL DEFAULT '',
    region             TEXT NOT NULL DEFAULT '',
    name               TEXT NOT NULL DEFAULT '',
    rating             REAL NOT NULL DEFAULT 0,
    user_ratings_total INTEGER NOT NULL DEFAULT 0,
    types              TEXT NOT NULL DEFAULT '[]',
    open_now           BOOLEAN,
    vicinity           TEXT NOT NULL DEFAULT '',
    lat                REAL NOT NULL DEFAULT 0,
    lng                REAL NOT NULL DEFAULT 0,
    fetched_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_places_region ON places(region);
CREATE INDEX IF NOT EXISTS idx_places_fetched_at ON places(fetched_at);

CREATE TABLE IF NOT EXISTS top_picks (
    profile_id TEXT NOT NULL,
    mode       TEXT NOT NULL,
    name       TEXT NOT NULL,
    score      INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL,
    PRIMARY KEY (profile_id, mode)
);
`
