package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/lexgest/internal/legal"
)

// ParagraphsPerNode bounds how many paragraphs go into one write.
const ParagraphsPerNode = 100

const source = "lexgest"

// Store lays summaries and paragraphs out under
//
//	lexgest/sessions/{session}/runs/{run}/summary
//	lexgest/sessions/{session}/documents/d{n}/meta
//	lexgest/sessions/{session}/documents/d{n}/paragraphs/{chunk}
type Store struct {
	client      *Client
	concurrency int
	log         *zap.Logger
}

func NewStore(c *Client, concurrency int, log *zap.Logger) *Store {
	if concurrency <= 0 {
		concurrency = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: c, concurrency: concurrency, log: log}
}

func sessionKey(sessionID string) string {
	return "lexgest/sessions/" + sessionID
}

func documentKey(sessionID string, docIndex int) string {
	return fmt.Sprintf("%s/documents/d%d", sessionKey(sessionID), docIndex)
}

func summaryKey(sessionID, runID string) string {
	return fmt.Sprintf("%s/runs/%s/summary", sessionKey(sessionID), runID)
}

// paragraphChunk is the value stored per paragraphs node.
type paragraphChunk struct {
	First      string            `json:"first"`
	Last       string            `json:"last"`
	Paragraphs []legal.Paragraph `json:"paragraphs"`
}

// SaveRun writes the summary, each document's metadata and its paragraphs
// in chunks, then links the summary to every document it drew from.
func (s *Store) SaveRun(ctx context.Context, sessionID string, item legal.SummaryItem, docs []legal.Document) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	writes := 0

	sumKey := summaryKey(sessionID, item.ID)
	g.Go(func() error {
		return s.client.PutNode(gctx, sumKey, NodeRequest{
			Value:      item,
			MemoryType: "summary",
			Source:     source + ":" + item.ID,
		})
	})
	writes++

	for _, d := range docs {
		docKey := documentKey(sessionID, d.Index)
		meta := map[string]any{
			"index":      d.Index,
			"name":       d.Name,
			"paragraphs": len(d.Paragraphs),
			"added_at":   d.AddedAt.Format(time.RFC3339),
		}
		if d.Hash != "" {
			meta["content_hash"] = d.Hash
		}
		g.Go(func() error {
			return s.client.PutNode(gctx, docKey+"/meta", NodeRequest{Value: meta, MemoryType: "document", Source: source + ":" + item.ID})
		})
		writes++

		for start := 0; start < len(d.Paragraphs); start += ParagraphsPerNode {
			chunk := d.Paragraphs[start:min(start+ParagraphsPerNode, len(d.Paragraphs))]
			key := fmt.Sprintf("%s/paragraphs/%04d", docKey, start/ParagraphsPerNode)
			g.Go(func() error {
				return s.client.PutNode(gctx, key, NodeRequest{
					Value: paragraphChunk{
						First:      chunk[0].ID,
						Last:       chunk[len(chunk)-1].ID,
						Paragraphs: chunk,
					},
					MemoryType: "paragraphs",
					Source:     source + ":" + item.ID,
				})
			})
			writes++
		}
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("save run %s: %w", item.ID, err)
	}

	// Links are best effort; the summary is already stored.
	for _, d := range docs {
		err := s.client.PutLink(ctx, LinkRequest{
			From:    sumKey,
			To:      documentKey(sessionID, d.Index) + "/meta",
			Weight:  1,
			Summary: "summarizes " + d.Name,
		})
		if err != nil {
			s.log.Warn("pathstore link failed", zap.String("run_id", item.ID), zap.Int("doc", d.Index), zap.Error(err))
		}
	}
	s.log.Info("run persisted", zap.String("run_id", item.ID), zap.Int("writes", writes))
	return writes, nil
}

// LoadSummary reads back a stored summary. It returns nil, nil when absent.
func (s *Store) LoadSummary(ctx context.Context, sessionID, runID string) (*legal.SummaryItem, error) {
	node, err := s.client.GetNode(ctx, summaryKey(sessionID, runID))
	if err != nil || node == nil {
		return nil, err
	}
	var item legal.SummaryItem
	if err := json.Unmarshal(node.Value, &item); err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", runID, err)
	}
	return &item, nil
}

// ListRuns returns the keys of runs stored for a session.
func (s *Store) ListRuns(ctx context.Context, sessionID string, limit int) ([]string, error) {
	nodes, err := s.client.ListChildren(ctx, sessionKey(sessionID)+"/runs", limit)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(nodes))
	for i, n := range nodes {
		keys[i] = n.Key
	}
	return keys, nil
}

// DeleteDocument removes a document's metadata and paragraphs.
func (s *Store) DeleteDocument(ctx context.Context, sessionID string, docIndex int) error {
	return s.client.DeleteNode(ctx, documentKey(sessionID, docIndex), true)
}

// DeleteSession removes everything stored for a session.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.DeleteNode(ctx, sessionKey(sessionID), true)
}

func (s *Store) Close() {
	s.client.Close()
}
