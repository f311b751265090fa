package tokens

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return fmt.Sprintf("token-%d", p.calls), nil
}

func TestCell_LazyInitialToken(t *testing.T) {
	p := &countingProvider{}
	c := NewCell(p)

	tok, gen, err := c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok)
	require.Equal(t, int64(1), gen)

	// Second read must not hit the provider again.
	tok, _, err = c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok)
	require.Equal(t, 1, p.calls)
}

func TestCell_RefreshOncePerGeneration(t *testing.T) {
	p := &countingProvider{}
	c := NewCell(p)

	_, gen, err := c.Token(context.Background())
	require.NoError(t, err)

	// Two callers observed the same generation; only one refresh happens.
	tok1, gen1, err := c.Refresh(context.Background(), gen)
	require.NoError(t, err)
	tok2, gen2, err := c.Refresh(context.Background(), gen)
	require.NoError(t, err)

	require.Equal(t, "token-2", tok1)
	require.Equal(t, tok1, tok2)
	require.Equal(t, gen1, gen2)
	require.Equal(t, 2, p.calls)
}

func TestCell_ConcurrentRefreshes(t *testing.T) {
	p := &countingProvider{}
	c := NewCell(p)

	_, gen, err := c.Token(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Refresh(context.Background(), gen)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// initial load + exactly one refresh
	require.Equal(t, 2, p.calls)
}

func TestStaticProvider(t *testing.T) {
	p := StaticProvider("fixed")
	tok, err := p.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fixed", tok)
}
