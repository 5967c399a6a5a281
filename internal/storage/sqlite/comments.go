package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Comment is one corpus item as stored.
type Comment struct {
	ID        int64
	Text      string
	Author    string
	Source    string
	SourceRef string
	FetchedAt time.Time
}

// InsertComments inserts a batch in one transaction and returns how many
// rows went in.
func InsertComments(db *sql.DB, comments []Comment) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO comments (text, author, source, source_ref) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range comments {
		if _, err := stmt.Exec(c.Text, c.Author, c.Source, c.SourceRef); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

// CommentTextsBySource returns comment texts for one source in insertion
// order, all sources when source is empty. The returned slice backs a scan's
// corpus, so the order must be stable across calls for checkpoint resume to
// line up.
func CommentTextsBySource(db *sql.DB, source string) ([]string, error) {
	query := `SELECT text FROM comments ORDER BY id`
	args := []any{}
	if source != "" {
		query = `SELECT text FROM comments WHERE source = ? ORDER BY id`
		args = append(args, source)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

// CountComments returns the corpus size for a source, or in total when
// source is empty.
func CountComments(db *sql.DB, source string) (int, error) {
	var count int
	var err error
	if source == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&count)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM comments WHERE source = ?`, source).Scan(&count)
	}
	return count, err
}

type importedComment struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// ImportCommentsJSON loads comments from a JSON export into the corpus
// table under the given source label. The file may be an array of strings
// or an array of {"text", "author"} objects. Blank texts are dropped at
// import; they would only be skipped at scan time anyway.
func ImportCommentsJSON(db *sql.DB, path, source string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading comments file: %w", err)
	}

	var objects []importedComment
	if err := json.Unmarshal(data, &objects); err != nil {
		var plain []string
		if err2 := json.Unmarshal(data, &plain); err2 != nil {
			return 0, fmt.Errorf("parsing comments file %s: %w", path, err)
		}
		objects = make([]importedComment, len(plain))
		for i, text := range plain {
			objects[i] = importedComment{Text: text}
		}
	}

	comments := make([]Comment, 0, len(objects))
	for _, obj := range objects {
		if obj.Text == "" {
			continue
		}
		comments = append(comments, Comment{
			Text:      obj.Text,
			Author:    obj.Author,
			Source:    source,
			SourceRef: path,
		})
	}
	return InsertComments(db, comments)
}
