package archiver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chris/tin/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSweep(t *testing.T) {
	maxAge := 30 * 24 * time.Hour

	t.Run("Success", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("ArchiveOldCards", mock.Anything, maxAge).Return(3, nil)

		a := New(mockStorage, maxAge, time.Hour, discard)

		assert.Equal(t, 3, a.Sweep(context.Background()))
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("ArchiveOldCards", mock.Anything, maxAge).Return(0, errors.New("database is locked"))

		a := New(mockStorage, maxAge, time.Hour, discard)

		assert.Equal(t, 0, a.Sweep(context.Background()))
	})
}

func TestRun(t *testing.T) {
	t.Run("Sweeps On Start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mockStorage := mocks.NewStorage(t)
		mockStorage.On("ArchiveOldCards", mock.Anything, time.Hour).
			Run(func(mock.Arguments) { cancel() }).
			Return(0, nil).Once()

		a := New(mockStorage, time.Hour, time.Hour, discard)

		done := make(chan struct{})
		go func() {
			a.Run(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("archiver did not stop after cancellation")
		}
	})

	t.Run("Keeps Running After Error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mockStorage := mocks.NewStorage(t)
		mockStorage.On("ArchiveOldCards", mock.Anything, time.Hour).Return(0, errors.New("boom")).Once()
		mockStorage.On("ArchiveOldCards", mock.Anything, time.Hour).
			Run(func(mock.Arguments) { cancel() }).
			Return(2, nil).Once()

		a := New(mockStorage, time.Hour, time.Millisecond, discard)

		done := make(chan struct{})
		go func() {
			a.Run(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("archiver did not stop after cancellation")
		}
	})
}
