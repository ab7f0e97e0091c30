package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Artifact is the immutable output of a single backend invocation.
type Artifact struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Adapter    string    `json:"adapter"`
	Model      string    `json:"model"`
	PromptHash string    `json:"prompt_hash"`
	CreatedAt  time.Time `json:"created_at"`
	Hash       string    `json:"hash"`
}

// New creates a new Artifact with computed hashes. The prompt itself is not
// retained; chained prompts grow large and are reconstructible from the run.
func New(content, adapter, model, prompt string) *Artifact {
	a := &Artifact{
		ID:         uuid.NewString(),
		Content:    content,
		Adapter:    adapter,
		Model:      model,
		PromptHash: HashString(prompt),
		CreatedAt:  time.Now().UTC(),
	}
	a.Hash = a.computeHash()
	return a
}

func (a *Artifact) computeHash() string {
	h := sha256.New()
	h.Write([]byte(a.Content))
	h.Write([]byte(a.Adapter))
	h.Write([]byte(a.Model))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashString returns the hex sha256 of value.
func HashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
