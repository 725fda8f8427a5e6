package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created TEXT NOT NULL,
	strategy TEXT NOT NULL,
	symbols TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	days INTEGER NOT NULL,
	start_cash REAL NOT NULL,
	end_cash REAL NOT NULL,
	long_equity REAL NOT NULL,
	short_equity REAL NOT NULL,
	total_value REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	realized REAL NOT NULL,
	commissions REAL NOT NULL,
	dividends REAL NOT NULL,
	org_path TEXT NOT NULL
);
`

// RunIDColumn is added to every exported table.
const RunIDColumn = "run_id"
