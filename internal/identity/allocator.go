// Package identity allocates the short identifiers that name catalog entries.
//
// An identifier is a shuffled mix of a fixed number of digits and lowercase
// letters (three and two by default, e.g. "4k0b7"). The allocator is stateless
// per call: stability across runs comes from reusing identifiers persisted in
// the previous catalog (see Stamp).
package identity

import (
	"fmt"
	"math/big"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/dockcatalog/internal/domain"
)

const (
	digitAlphabet  = "0123456789"
	letterAlphabet = "abcdefghijklmnopqrstuvwxyz"

	DefaultDigits  = 3
	DefaultLetters = 2

	// DefaultMaxRetries bounds consecutive collisions for a single draw.
	DefaultMaxRetries = 10000
)

// Options configures identifier composition.
type Options struct {
	Digits     int
	Letters    int
	MaxRetries int
	// Rand overrides the random source. Nil seeds one from the clock.
	Rand *rand.Rand
}

// Allocator draws identifiers of a fixed composition.
type Allocator struct {
	digits     int
	letters    int
	maxRetries int
	rng        *rand.Rand
	log        zerolog.Logger
}

// NewAllocator validates opts and returns an allocator.
func NewAllocator(opts Options, log zerolog.Logger) (*Allocator, error) {
	if opts.Digits < 0 || opts.Letters < 0 {
		return nil, fmt.Errorf("identifier composition cannot be negative (digits=%d, letters=%d)", opts.Digits, opts.Letters)
	}
	if opts.Digits+opts.Letters == 0 {
		return nil, fmt.Errorf("identifier must contain at least one character")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}

	return &Allocator{
		digits:     opts.Digits,
		letters:    opts.Letters,
		maxRetries: opts.MaxRetries,
		rng:        rng,
		log:        log.With().Str("component", "identity").Logger(),
	}, nil
}

// Length returns the number of characters in an identifier.
func (a *Allocator) Length() int {
	return a.digits + a.letters
}

// KeyspaceSize returns how many distinct identifiers the composition admits:
// C(d+l, l) placements times 10^d digit choices times 26^l letter choices.
func (a *Allocator) KeyspaceSize() *big.Int {
	n := new(big.Int).Binomial(int64(a.digits+a.letters), int64(a.letters))
	n.Mul(n, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.digits)), nil))
	n.Mul(n, new(big.Int).Exp(big.NewInt(26), big.NewInt(int64(a.letters)), nil))
	return n
}

// Valid reports whether id has this allocator's composition.
func (a *Allocator) Valid(id string) bool {
	if len(id) != a.Length() {
		return false
	}
	var digits, letters int
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'a' && r <= 'z':
			letters++
		default:
			return false
		}
	}
	return digits == a.digits && letters == a.letters
}

// Allocate returns n distinct identifiers, none of which appear in exclude.
// exclude is not modified.
//
// It fails with domain.ErrExhaustedKeyspace when the request cannot fit in the
// remaining keyspace, or when a single draw collides MaxRetries times in a row.
func (a *Allocator) Allocate(n int, exclude map[string]struct{}) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("cannot allocate a negative number of identifiers: %d", n)
	}
	if n == 0 {
		return []string{}, nil
	}

	taken := 0
	for id := range exclude {
		if a.Valid(id) {
			taken++
		}
	}
	need := big.NewInt(int64(n + taken))
	if need.Cmp(a.KeyspaceSize()) > 0 {
		return nil, fmt.Errorf("%w: requested %d with %d already taken, keyspace holds %s",
			domain.ErrExhaustedKeyspace, n, taken, a.KeyspaceSize())
	}

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		id, err := a.draw(exclude, seen)
		if err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	a.log.Debug().Int("count", n).Int("excluded", len(exclude)).Msg("identifiers allocated")
	return out, nil
}

func (a *Allocator) draw(exclude, seen map[string]struct{}) (string, error) {
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		id := a.candidate()
		if _, ok := exclude[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if attempt > 0 {
			a.log.Debug().Int("collisions", attempt).Str("id", id).Msg("identifier drawn after collisions")
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: no free identifier after %d attempts", domain.ErrExhaustedKeyspace, a.maxRetries)
}

func (a *Allocator) candidate() string {
	buf := make([]byte, 0, a.Length())
	for i := 0; i < a.digits; i++ {
		buf = append(buf, digitAlphabet[a.rng.IntN(len(digitAlphabet))])
	}
	for i := 0; i < a.letters; i++ {
		buf = append(buf, letterAlphabet[a.rng.IntN(len(letterAlphabet))])
	}
	a.rng.Shuffle(len(buf), func(i, j int) {
		buf[i], buf[j] = buf[j], buf[i]
	})
	return string(buf)
}
