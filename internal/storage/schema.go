// Package storage keeps the history of generated CSB 19 files in SQLite.
package storage

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per generated file
CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    group_ref TEXT NOT NULL,           -- PaymentGroup.Reference
    presenter TEXT NOT NULL,           -- presenter code
    journal TEXT NOT NULL,             -- payment journal name
    file_name TEXT NOT NULL,
    receipts INTEGER NOT NULL,
    amount TEXT NOT NULL,              -- decimal, two places
    payment_date TEXT NOT NULL,        -- YYYY-MM-DD
    content TEXT NOT NULL,             -- the file text, CRLF separated
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attachments_group
    ON attachments(group_ref);

CREATE INDEX IF NOT EXISTS idx_attachments_presenter
    ON attachments(presenter);
`
