package ticketnumber

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	randomMin = 10000
	randomMax = 99999
)

// Random draws 5-digit candidates and checks them against the store, backing off between attempts.
type Random struct {
	prefix      string
	maxAttempts int
	backoff     time.Duration
	clock       Clock

	mu  sync.Mutex
	src *mrand.Rand
}

// NewRandom builds a random generator. A zero seed draws one from crypto/rand.
func NewRandom(prefix string, maxAttempts int, backoff time.Duration, clock Clock, seed int64) *Random {
	if seed == 0 {
		var b [8]byte
		_, _ = rand.Read(b[:])
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Random{
		prefix:      prefix,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		clock:       clock,
		src:         mrand.New(mrand.NewSource(seed)),
	}
}

func (g *Random) Name() string { return "random" }

func (g *Random) Next(ctx context.Context, existing Lookup) (string, error) {
	year := g.clock().Year()
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate := Format(g.prefix, year, g.draw())
		taken, err := existing.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		if attempt == g.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * g.backoff):
		}
	}
	return "", apperrors.NewConflict("could not allocate a unique ticket number",
		map[string]any{"attempts": g.maxAttempts})
}

func (g *Random) draw() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(randomMin + g.src.Intn(randomMax-randomMin+1))
}
