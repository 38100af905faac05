// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS operations (
	run_id TEXT NOT NULL,
	ticket INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	magic INTEGER NOT NULL,
	direction TEXT NOT NULL,
	order_type TEXT NOT NULL,
	lots REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	risk_amount REAL NOT NULL,
	status TEXT NOT NULL,
	open_time DATETIME NOT NULL,
	recorded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	magic INTEGER NOT NULL,
	action TEXT NOT NULL,
	confidence REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_magic ON operations(magic);
CREATE INDEX IF NOT EXISTS idx_operations_recorded ON operations(symbol, recorded_at);
CREATE INDEX IF NOT EXISTS idx_decisions_time ON decisions(time);
`
