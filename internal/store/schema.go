package store

// Schema defines every ledger table. Amounts are stored as decimal strings.
const Schema = `
-- Company-wide account references, one row.
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    receivable_account_id TEXT NOT NULL DEFAULT '',
    payable_account_id TEXT NOT NULL DEFAULT '',
    undeposited_funds_id TEXT NOT NULL DEFAULT '',
    sales_tax_account_id TEXT NOT NULL DEFAULT '',
    purchase_tax_account_id TEXT NOT NULL DEFAULT '',
    opening_balance_account_id TEXT NOT NULL DEFAULT '',
    default_bank_account_id TEXT NOT NULL DEFAULT '',
    fiscal_year_start TEXT NOT NULL DEFAULT '01-01'
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    number TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    detail TEXT NOT NULL,
    parent_id TEXT REFERENCES accounts(id),
    balance TEXT NOT NULL DEFAULT '0',
    opening_balance TEXT NOT NULL DEFAULT '0',
    opening_date TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_number
    ON accounts(number) WHERE number <> '';

CREATE TABLE IF NOT EXISTS parties (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,                -- 'customer' or 'vendor'
    name TEXT NOT NULL,
    company TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    number TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    date TEXT NOT NULL,                -- YYYY-MM-DD
    due_date TEXT NOT NULL DEFAULT '',
    customer_id TEXT REFERENCES parties(id),
    vendor_id TEXT REFERENCES parties(id),
    tax_rate TEXT NOT NULL DEFAULT '0',
    subtotal TEXT NOT NULL DEFAULT '0',
    tax TEXT NOT NULL DEFAULT '0',
    total TEXT NOT NULL DEFAULT '0',
    memo TEXT NOT NULL DEFAULT '',
    deposit_account_id TEXT REFERENCES accounts(id),
    deposit_id TEXT REFERENCES transactions(id),
    reverses_id TEXT REFERENCES transactions(id),
    created_at TEXT NOT NULL,
    CHECK (customer_id IS NULL OR vendor_id IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_transactions_type_date
    ON transactions(type, date);

CREATE TABLE IF NOT EXISTS line_items (
    transaction_id TEXT NOT NULL REFERENCES transactions(id),
    seq INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    quantity TEXT NOT NULL,
    rate TEXT NOT NULL,
    amount TEXT NOT NULL,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    taxable INTEGER,                   -- NULL when the line carries no flag
    PRIMARY KEY (transaction_id, seq)
);

CREATE TABLE IF NOT EXISTS journal_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id TEXT NOT NULL REFERENCES transactions(id),
    account_id TEXT NOT NULL REFERENCES accounts(id),
    description TEXT NOT NULL DEFAULT '',
    debit TEXT NOT NULL DEFAULT '0',
    credit TEXT NOT NULL DEFAULT '0',
    date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_lines_account_date
    ON journal_lines(account_id, date);

CREATE INDEX IF NOT EXISTS idx_journal_lines_transaction
    ON journal_lines(transaction_id);

CREATE TABLE IF NOT EXISTS payment_allocations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    payment_id TEXT NOT NULL REFERENCES transactions(id),
    target_id TEXT NOT NULL REFERENCES transactions(id),
    amount TEXT NOT NULL,
    date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_allocations_target
    ON payment_allocations(target_id);

CREATE INDEX IF NOT EXISTS idx_allocations_payment
    ON payment_allocations(payment_id);

CREATE TABLE IF NOT EXISTS reconciliation_sessions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    statement_date TEXT NOT NULL,
    ending_balance TEXT NOT NULL,
    opening_balance TEXT NOT NULL,
    cleared_balance TEXT NOT NULL DEFAULT '0',
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    completed_at TEXT NOT NULL DEFAULT ''
);

-- At most one session in progress per account.
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_open
    ON reconciliation_sessions(account_id) WHERE status = 'InProgress';

CREATE TABLE IF NOT EXISTS bank_transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    date TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL,
    reference TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL,
    session_id TEXT REFERENCES reconciliation_sessions(id),
    matched_transaction_id TEXT REFERENCES transactions(id),
    UNIQUE(account_id, reference)
);

CREATE INDEX IF NOT EXISTS idx_bank_transactions_session
    ON bank_transactions(session_id);
`
