package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/hive/internal/actions"
	"github.com/dotcommander/hive/internal/models"
	"github.com/dotcommander/hive/internal/output"
	"github.com/dotcommander/hive/internal/store"
)

// NewDocumentCmd creates the document command group.
func NewDocumentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Project documents (standups, critical issues, updates)",
	}

	cmd.AddCommand(newDocCreateCmd())
	cmd.AddCommand(newDocGetCmd())
	cmd.AddCommand(newDocUpdateCmd())
	cmd.AddCommand(newDocListCmd())
	cmd.AddCommand(newDocDeleteCmd())

	return cmd
}

func newDocCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document; @mentions in the content are fanned out",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agentName(cmd)
			if err != nil {
				return cmdErr(err)
			}
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			typeRaw, _ := cmd.Flags().GetString("type")
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")
			metadata, _ := cmd.Flags().GetString("metadata")
			ttl, _ := cmd.Flags().GetInt("ttl")

			docType, err := models.NormalizeDocumentType(typeRaw)
			if err != nil {
				return cmdErr(err)
			}

			var expiresAt *time.Time
			if ttl > 0 {
				t := time.Now().Add(time.Duration(ttl) * time.Second)
				expiresAt = &t
			}

			var doc *models.Document
			if err := withDB(func(db *DB) error {
				d, err := actions.CreateDocument(db, store.CreateDocumentParams{
					ProjectID: pid,
					Type:      docType,
					Author:    name,
					Title:     title,
					Content:   content,
					Metadata:  metadata,
					ExpiresAt: expiresAt,
				})
				if err != nil {
					return err
				}
				doc = d
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(doc)
		},
	}

	cmd.Flags().String("type", "", "Document type: standup|critical_issue|service_status|update (required)")
	cmd.Flags().String("title", "", "Document title (required, max 200 chars)")
	cmd.Flags().String("content", "", "Document content (max 50000 chars)")
	cmd.Flags().String("metadata", "", "Structured metadata (JSON)")
	cmd.Flags().Int("ttl", 0, "Expiry in seconds (0 = never)")

	return cmd
}

func newDocGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a document by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var doc *models.Document
			if err := withDB(func(db *DB) error {
				d, err := store.GetDocument(db, id)
				if err != nil {
					return err
				}
				doc = d
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(doc)
		},
	}

	cmd.Flags().String("id", "", "Document ID (required)")

	return cmd
}

func newDocUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a document's title and content; mentions are re-derived",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			var doc *models.Document
			if err := withDB(func(db *DB) error {
				d, err := actions.UpdateDocument(db, id, title, content)
				if err != nil {
					return err
				}
				doc = d
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(doc)
		},
	}

	cmd.Flags().String("id", "", "Document ID (required)")
	cmd.Flags().String("title", "", "New title (required)")
	cmd.Flags().String("content", "", "New content")

	return cmd
}

func newDocListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's documents, newest first (expired rows skipped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := projectID(cmd, true)
			if err != nil {
				return cmdErr(err)
			}
			typeRaw, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")

			var docType models.DocumentType
			if typeRaw != "" {
				docType, err = models.NormalizeDocumentType(typeRaw)
				if err != nil {
					return cmdErr(err)
				}
			}

			var docs []*models.Document
			if err := withDB(func(db *DB) error {
				d, err := store.ListDocuments(db, pid, docType, limit)
				if err != nil {
					return err
				}
				docs = d
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count     int                `json:"count"`
				Documents []*models.Document `json:"documents"`
			}
			return output.PrintSuccess(resp{Count: len(docs), Documents: docs})
		},
	}

	cmd.Flags().String("type", "", "Filter by document type")
	cmd.Flags().Int("limit", 50, "Maximum rows")

	return cmd
}

func newDocDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a document (its mentions cascade)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				return cmdErr(errors.New("--id is required"))
			}

			if err := withDB(func(db *DB) error {
				return store.DeleteDocument(db, id)
			}); err != nil {
				return err
			}

			type resp struct {
				DocumentID string `json:"document_id"`
				Deleted    bool   `json:"deleted"`
			}
			return output.PrintSuccess(resp{DocumentID: id, Deleted: true})
		},
	}

	cmd.Flags().String("id", "", "Document ID (required)")

	return cmd
}
