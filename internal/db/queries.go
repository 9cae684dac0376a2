package db

var Tokens = `
	SELECT token
	FROM tokens`

var InsertToken = `
	INSERT
	INTO tokens (token)
	VALUES (?)
	RETURNING rowid`

var Imports = `
	SELECT id, timestamp, source
	FROM imports
	ORDER BY timestamp`

var InsertImport = `
	INSERT
	INTO imports (id, timestamp, source)
	VALUES (?, ?, ?)`

var Subjects = `
	SELECT id, import_id, gender, ipd, leader
	FROM subjects
	ORDER BY id`

var Subject = `
	SELECT id, import_id, gender, ipd, leader
	FROM subjects
	WHERE id = ?`

var InsertSubject = `
	INSERT OR REPLACE
	INTO subjects (id, import_id, gender, ipd, leader)
	VALUES (?, ?, ?, ?, ?)`

var DeleteSubject = `
	DELETE
	FROM subjects
	WHERE id = ?`

var Trials = `
	SELECT subject_id, trial_id, freewalk, v0, data
	FROM trials
	WHERE subject_id = ?
	ORDER BY freewalk, trial_id`

var Trial = `
	SELECT subject_id, trial_id, freewalk, v0, data
	FROM trials
	WHERE
	    subject_id = ?
		AND trial_id = ?
		AND freewalk = ?`

var InsertTrial = `
	INSERT OR REPLACE
	INTO trials (subject_id, trial_id, freewalk, v0, data)
	VALUES (?, ?, ?, ?, ?)`

var DeleteTrials = `
	DELETE
	FROM trials
	WHERE subject_id = ?`
