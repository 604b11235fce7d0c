package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, file_size, file_path, file_type, extracted_text, document_type, confidence, key_information, analysis_method, model_used, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    file_size,
    file_path,
    file_type,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	fileType := doc.FileType
	if fileType == "" {
		fileType = FileTypeNotSpecified
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.FileSize,
		doc.FilePath,
		string(fileType),
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, documentID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListIDsByUser returns every document ID owned by a user.
func (r *PGRepo) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT id FROM documents WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CountByUser counts documents owned by a user.
func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE user_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateExtractedText stores the extracted text for a document.
func (r *PGRepo) UpdateExtractedText(ctx context.Context, userID, documentID, text string) error {
	const query = `
UPDATE documents
SET extracted_text = $1, updated_at = now()
WHERE user_id = $2 AND id = $3`
	_, err := r.DB.ExecContext(ctx, query, text, userID, documentID)
	return err
}

// UpdateAnalysis writes the classification result back to a document.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, userID, documentID string, analysis Analysis) error {
	const query = `
UPDATE documents
SET document_type = $1,
    confidence = $2,
    key_information = $3,
    analysis_method = $4,
    model_used = $5,
    updated_at = now()
WHERE user_id = $6 AND id = $7`

	var keyInfo any
	if len(analysis.KeyInformation) > 0 {
		raw, err := json.Marshal(analysis.KeyInformation)
		if err != nil {
			return err
		}
		keyInfo = raw
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		analysis.DocumentType,
		analysis.Confidence,
		keyInfo,
		nullableString(analysis.AnalysisMethod),
		nullableString(analysis.ModelUsed),
		userID,
		documentID,
	)
	return err
}

// Delete removes a document row.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	const query = `DELETE FROM documents WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, documentID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var fileType string
	var extractedText sql.NullString
	var documentType sql.NullString
	var confidence sql.NullFloat64
	var keyInfo []byte
	var analysisMethod sql.NullString
	var modelUsed sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.FileSize,
		&doc.FilePath,
		&fileType,
		&extractedText,
		&documentType,
		&confidence,
		&keyInfo,
		&analysisMethod,
		&modelUsed,
		&doc.CreatedAt,
		&updatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.FileType = FileType(fileType)
	if extractedText.Valid {
		doc.ExtractedText = extractedText.String
	}
	if documentType.Valid {
		doc.DocumentType = documentType.String
	}
	if confidence.Valid {
		v := confidence.Float64
		doc.Confidence = &v
	}
	if len(keyInfo) > 0 {
		_ = json.Unmarshal(keyInfo, &doc.KeyInformation)
	}
	if analysisMethod.Valid {
		doc.AnalysisMethod = analysisMethod.String
	}
	if modelUsed.Valid {
		doc.ModelUsed = modelUsed.String
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return doc, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
