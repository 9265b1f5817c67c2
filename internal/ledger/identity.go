package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/jmoiron/sqlx"
)

// upsertID runs a query built by getUpsertIDQuery and returns the row id.
func (s *Store) upsertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (int64, error) {
	query = ext.Rebind(query)
	if s.backend == schema.MySQLBackend {
		res, err := ext.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	err := ext.QueryRowxContext(ctx, query, args...).Scan(&id)
	return id, err
}

// ResolveProject returns the project for (name, rootPath), creating it if absent.
func (s *Store) ResolveProject(ctx context.Context, name, rootPath string) (schema.Project, error) {
	key := fmt.Sprintf("project %s@%s", name, rootPath)
	if name == "" {
		return schema.Project{}, contract.NewRecordError(contract.ErrConflict, key, errors.New("project name is empty"))
	}

	cols := []string{"name", "root_path"}
	query := getUpsertIDQuery(s.backend, schema.ProjectsTable, cols, cols, nil)

	var id int64
	err := s.withRetry(ctx, "resolve project", func() error {
		var err error
		id, err = s.upsertID(ctx, s.db, query, name, rootPath)
		return err
	})
	if err != nil {
		return schema.Project{}, recordErr("resolve project", key, err)
	}
	return schema.Project{ID: id, Name: name, RootPath: rootPath}, nil
}

// ResolveAuthor returns the author for (projectID, email), creating it if absent.
// A different display name for a known email overwrites the stored one.
func (s *Store) ResolveAuthor(ctx context.Context, projectID int64, name, email string) (schema.Author, error) {
	key := fmt.Sprintf("author %d/%s", projectID, email)
	if email == "" {
		return schema.Author{}, contract.NewRecordError(contract.ErrConflict, key, errors.New("author email is empty"))
	}

	query := getUpsertIDQuery(s.backend, schema.AuthorsTable,
		[]string{"project_id", "name", "email"},
		[]string{"project_id", "email"},
		[]string{"name"})

	var id int64
	err := s.withRetry(ctx, "resolve author", func() error {
		var err error
		id, err = s.upsertID(ctx, s.db, query, projectID, name, email)
		return err
	})
	if err != nil {
		return schema.Author{}, recordErr("resolve author", key, err)
	}
	return schema.Author{ID: id, ProjectID: projectID, Name: name, Email: email}, nil
}

// FindProject looks up the oldest project registered under name.
func (s *Store) FindProject(ctx context.Context, name string) (schema.Project, error) {
	var project schema.Project
	query := s.db.Rebind("SELECT id, name, root_path FROM projects WHERE name = ? ORDER BY id LIMIT 1")
	found, err := getOptional(ctx, s.db, &project, query, name)
	if err != nil {
		return schema.Project{}, wrapStorageErr("find project", err)
	}
	if !found {
		return schema.Project{}, contract.NewRecordError(contract.ErrNotFound, "project "+name, nil)
	}
	return project, nil
}

// getProject loads a project by id.
func (s *Store) getProject(ctx context.Context, projectID int64) (schema.Project, error) {
	var project schema.Project
	query := s.db.Rebind("SELECT id, name, root_path FROM projects WHERE id = ?")
	found, err := getOptional(ctx, s.db, &project, query, projectID)
	if err != nil {
		return schema.Project{}, wrapStorageErr("get project", err)
	}
	if !found {
		return schema.Project{}, contract.NewRecordError(contract.ErrNotFound, fmt.Sprintf("project %d", projectID), nil)
	}
	return project, nil
}
