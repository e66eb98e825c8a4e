package legacy

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_saludplus_facturas/internal/core/search"
)

func TestInvoke_SynchronousJSON(t *testing.T) {
	var seen string
	handler := func(_ context.Context, req search.Request, res search.Responder) error {
		seen = req.SearchTerm
		res.JSON(map[string]any{"idFactura": 42})
		return nil
	}

	got, err := Invoke(context.Background(), handler, "ADM-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, map[string]any{"idFactura": 42}, got.Body)
	assert.Equal(t, "ADM-1", seen)
}

func TestInvoke_StatusThenJSON(t *testing.T) {
	handler := func(_ context.Context, _ search.Request, res search.Responder) error {
		res.Status(http.StatusNotFound).JSON(map[string]string{"mensaje": "no"})
		return nil
	}

	got, err := Invoke(context.Background(), handler, "x", time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, map[string]string{"mensaje": "no"}, got.Body)
}

func TestInvoke_SendAndEnd(t *testing.T) {
	send := func(_ context.Context, _ search.Request, res search.Responder) error {
		res.Status(http.StatusAccepted).Send("ok")
		return nil
	}
	got, err := Invoke(context.Background(), send, "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Result{Status: http.StatusAccepted, Body: "ok"}, got)

	end := func(_ context.Context, _ search.Request, res search.Responder) error {
		res.End()
		return nil
	}
	got, err = Invoke(context.Background(), end, "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Result{Status: http.StatusOK}, got)
}

func TestInvoke_AsynchronousCompletion(t *testing.T) {
	handler := func(_ context.Context, _ search.Request, res search.Responder) error {
		go func() {
			time.Sleep(20 * time.Millisecond)
			res.JSON("late but in time")
		}()
		return nil
	}

	got, err := Invoke(context.Background(), handler, "x", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late but in time", got.Body)
}

func TestInvoke_FirstCompletionWins(t *testing.T) {
	handler := func(_ context.Context, _ search.Request, res search.Responder) error {
		res.JSON("first")
		res.Status(http.StatusInternalServerError).JSON("second")
		res.End()
		return errors.New("ignored after completion")
	}

	got, err := Invoke(context.Background(), handler, "x", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Result{Status: http.StatusOK, Body: "first"}, got)
}

func TestInvoke_TimeoutYieldsNoContent(t *testing.T) {
	handler := func(_ context.Context, _ search.Request, _ search.Responder) error {
		return nil
	}

	start := time.Now()
	got, err := Invoke(context.Background(), handler, "x", 50*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, got.TimedOut())
	assert.Equal(t, http.StatusNoContent, got.Status)
	assert.Nil(t, got.Body)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestInvoke_CompletionAfterTimeoutIsIgnored(t *testing.T) {
	release := make(chan struct{})
	handler := func(_ context.Context, _ search.Request, res search.Responder) error {
		go func() {
			<-release
			res.JSON("too late")
		}()
		return nil
	}

	got, err := Invoke(context.Background(), handler, "x", 20*time.Millisecond)
	close(release)

	require.NoError(t, err)
	assert.True(t, got.TimedOut())
}

func TestInvoke_ReturnedErrorRejects(t *testing.T) {
	boom := errors.New("db down")
	handler := func(_ context.Context, _ search.Request, _ search.Responder) error {
		return boom
	}

	_, err := Invoke(context.Background(), handler, "x", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestInvoke_PanicRejects(t *testing.T) {
	handler := func(_ context.Context, _ search.Request, _ search.Responder) error {
		panic("nil map")
	}

	_, err := Invoke(context.Background(), handler, "x", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestInvoke_ContextCancelled(t *testing.T) {
	handler := func(ctx context.Context, _ search.Request, _ search.Responder) error {
		<-ctx.Done()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Invoke(ctx, handler, "x", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvoke_NilHandler(t *testing.T) {
	_, err := Invoke(context.Background(), nil, "x", time.Second)
	assert.ErrorIs(t, err, ErrNilHandler)
}
