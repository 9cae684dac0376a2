package db

var Schema = `
	CREATE TABLE IF NOT EXISTS tokens (
		token TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS imports(
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		source TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS subjects(
		id INTEGER PRIMARY KEY,
		import_id TEXT NOT NULL,
		gender TEXT NOT NULL,
		ipd REAL NOT NULL,
		leader TEXT NOT NULL,
		FOREIGN KEY (import_id) REFERENCES imports (id)
	);
	CREATE TABLE IF NOT EXISTS trials(
		subject_id INTEGER NOT NULL,
		trial_id INTEGER NOT NULL,
		freewalk INTEGER NOT NULL,
		v0 REAL NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (subject_id, trial_id, freewalk),
		FOREIGN KEY (subject_id) REFERENCES subjects (id) ON DELETE CASCADE
	);`
