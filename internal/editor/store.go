package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// apiStore loads and saves documents through the REST API, authenticating
// with the same access token used for the room handshake.
type apiStore struct {
	baseURL     string
	accessToken string
	client      *http.Client

	mu    sync.Mutex
	title string
}

func NewAPIStore(baseURL, accessToken string) Store {
	return &apiStore{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

type apiEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiDocument struct {
	Id      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *apiStore) Load(ctx context.Context, documentId uint) (string, error) {
	url := fmt.Sprintf("%s/api/documents/%d", s.baseURL, documentId)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("load document %d: status %d", documentId, resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	var doc apiDocument
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		return "", err
	}

	// The update endpoint wants the title back even though the editor only
	// changes content.
	s.mu.Lock()
	s.title = doc.Title
	s.mu.Unlock()

	return doc.Content, nil
}

func (s *apiStore) Save(ctx context.Context, documentId uint, content string) error {
	s.mu.Lock()
	title := s.title
	s.mu.Unlock()

	body, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/documents/%d", s.baseURL, documentId)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("save document %d: status %d", documentId, resp.StatusCode)
	}
	return nil
}
