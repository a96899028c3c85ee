package halts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/redis/go-redis/v9"
)

const hashPrefix = "halts:"

// scopes in the order List reads them
var scopes = []Scope{ScopeGlobal, ScopeChain, ScopeTrading, ScopePool}

// Store keeps operator halt overrides in Redis, one hash per scope keyed
// by target: halts:chain holds BTC, ETH and so on. Keys are canonicalized
// before they are written, so differently cased keys share one entry.
type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client, now: time.Now}, nil
}

// Upsert writes the override for key. The returned Halt carries the
// canonical key.
func (s *Store) Upsert(ctx context.Context, key string, halted bool, reason string) (*Halt, error) {
	t, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	reason, err = cleanReason(reason)
	if err != nil {
		return nil, err
	}

	h := &Halt{
		Key:       t.Key(),
		Scope:     t.Scope,
		Halted:    halted,
		Reason:    reason,
		UpdatedAt: s.now().UTC(),
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal halt: %w", err)
	}
	if err := s.client.HSet(ctx, hashKey(t.Scope), field(t), b).Err(); err != nil {
		return nil, fmt.Errorf("upsert halt %s: %w", h.Key, err)
	}
	return h, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Halt, error) {
	t, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	val, err := s.client.HGet(ctx, hashKey(t.Scope), field(t)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get halt: %w", err)
	}
	return decode(t.Scope, val)
}

// List returns every override ordered by key. Entries that no longer
// decode are skipped.
func (s *Store) List(ctx context.Context) ([]*Halt, error) {
	return s.list(ctx, scopes...)
}

// ListScope returns the overrides of one scope ordered by key
func (s *Store) ListScope(ctx context.Context, scope Scope) ([]*Halt, error) {
	if _, err := ParseScope(string(scope)); err != nil {
		return nil, err
	}
	return s.list(ctx, scope)
}

func (s *Store) list(ctx context.Context, want ...Scope) ([]*Halt, error) {
	cmds := make([]*redis.MapStringStringCmd, len(want))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, sc := range want {
			cmds[i] = pipe.HGetAll(ctx, hashKey(sc))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list halts: %w", err)
	}

	out := make([]*Halt, 0)
	for i, cmd := range cmds {
		for _, val := range cmd.Val() {
			h, err := decode(want[i], val)
			if err != nil {
				continue
			}
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes the override for key; a missing override is not an error
func (s *Store) Delete(ctx context.Context, key string) error {
	t, err := ParseKey(key)
	if err != nil {
		return err
	}
	if err := s.client.HDel(ctx, hashKey(t.Scope), field(t)).Err(); err != nil {
		return fmt.Errorf("delete halt: %w", err)
	}
	return nil
}

func hashKey(sc Scope) string {
	return hashPrefix + string(sc)
}

// field is the target's name inside its scope hash
func field(t Target) string {
	switch t.Scope {
	case ScopeChain, ScopeTrading:
		return string(t.Chain)
	case ScopePool:
		return t.Pool.String()
	}
	return string(ScopeGlobal)
}

// decode reads a stored override, re-deriving key and scope so entries
// written under an older layout come back canonical.
func decode(sc Scope, val string) (*Halt, error) {
	var h Halt
	if err := json.Unmarshal([]byte(val), &h); err != nil {
		return nil, fmt.Errorf("unmarshal halt: %w", err)
	}
	t, err := ParseKey(h.Key)
	if err != nil {
		return nil, err
	}
	if t.Scope != sc {
		return nil, fmt.Errorf("halt %s stored under scope %s", h.Key, sc)
	}
	h.Key = t.Key()
	h.Scope = t.Scope
	return &h, nil
}

func cleanReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLen {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidReason, MaxReasonLen)
	}
	if strings.IndexFunc(reason, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: control characters", ErrInvalidReason)
	}
	return reason, nil
}
