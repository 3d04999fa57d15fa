package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

var _ BookStore = (*mockStore)(nil)

func (m *mockStore) Add(ctx context.Context, book *Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockStore) AddAll(ctx context.Context, books []*Book) error {
	return m.Called(ctx, books).Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Book), args.Error(1)
}

func (m *mockStore) GetByName(ctx context.Context, name string) ([]Book, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]Book), args.Error(1)
}

func (m *mockStore) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	args := m.Called(ctx, author)
	return args.Get(0).([]Book), args.Error(1)
}

func (m *mockStore) GetByPrintYear(ctx context.Context, year int) ([]Book, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]Book), args.Error(1)
}

func (m *mockStore) GetByIsRead(ctx context.Context, read bool) ([]Book, error) {
	args := m.Called(ctx, read)
	return args.Get(0).([]Book), args.Error(1)
}

func (m *mockStore) GetAll(ctx context.Context) ([]Book, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Book), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, book *Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockStore) UpdateAll(ctx context.Context, books []*Book) error {
	return m.Called(ctx, books).Error(0)
}

func (m *mockStore) Remove(ctx context.Context, book *Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockStore) RemoveAll(ctx context.Context, books []*Book) error {
	return m.Called(ctx, books).Error(0)
}

func (m *mockStore) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *mockStore) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// Each call must reach the store exactly once with the same arguments, and the
// store's answer must come back untouched. Unexpected calls fail the mock.
func TestBookManager_Delegates(t *testing.T) {
	ctx := context.Background()
	first, second := testBooks()
	books := []*Book{first, second}
	listed := []Book{*first, *second}
	storeErr := errors.New("store failure")

	t.Run("writes", func(t *testing.T) {
		store := &mockStore{}
		bm := NewBookManager(store)

		store.On("Add", ctx, first).Return(nil).Once()
		store.On("AddAll", ctx, books).Return(storeErr).Once()
		store.On("Update", ctx, second).Return(nil).Once()
		store.On("UpdateAll", ctx, books).Return(nil).Once()
		store.On("Remove", ctx, first).Return(ErrInvalidBook).Once()
		store.On("RemoveAll", ctx, books).Return(nil).Once()
		store.On("Reset", ctx).Return(nil).Once()

		assert.NoError(t, bm.Add(ctx, first))
		assert.ErrorIs(t, bm.AddAll(ctx, books), storeErr)
		assert.NoError(t, bm.Update(ctx, second))
		assert.NoError(t, bm.UpdateAll(ctx, books))
		assert.ErrorIs(t, bm.Remove(ctx, first), ErrInvalidBook)
		assert.NoError(t, bm.RemoveAll(ctx, books))
		assert.NoError(t, bm.Reset(ctx))

		store.AssertExpectations(t)
	})

	t.Run("reads", func(t *testing.T) {
		store := &mockStore{}
		bm := NewBookManager(store)

		store.On("GetByID", ctx, int64(1)).Return(*first, nil).Once()
		store.On("GetByName", ctx, "test firstBook").Return(listed[:1], nil).Once()
		store.On("GetByAuthor", ctx, "test secondAuthor").Return(listed[1:], nil).Once()
		store.On("GetByPrintYear", ctx, 2000).Return([]Book{}, nil).Once()
		store.On("GetByIsRead", ctx, true).Return([]Book(nil), storeErr).Once()
		store.On("GetAll", ctx).Return(listed, nil).Once()

		got, err := bm.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, *first, got)

		byName, err := bm.GetByName(ctx, "test firstBook")
		require.NoError(t, err)
		assert.Equal(t, listed[:1], byName)

		byAuthor, err := bm.GetByAuthor(ctx, "test secondAuthor")
		require.NoError(t, err)
		assert.Equal(t, listed[1:], byAuthor)

		byYear, err := bm.GetByPrintYear(ctx, 2000)
		require.NoError(t, err)
		assert.Empty(t, byYear)

		_, err = bm.GetByIsRead(ctx, true)
		assert.ErrorIs(t, err, storeErr)

		all, err := bm.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, listed, all)

		store.AssertExpectations(t)
	})

	t.Run("transactions and close", func(t *testing.T) {
		store := &mockStore{}
		bm := NewBookManager(store)

		store.On("InTx", ctx, mock.AnythingOfType("func(*library.Tx) error")).Return(storeErr).Once()
		store.On("Close").Return(nil).Once()

		assert.ErrorIs(t, bm.InTx(ctx, func(*Tx) error { return nil }), storeErr)
		assert.NoError(t, bm.Close())

		store.AssertExpectations(t)
	})
}

func TestBookManager_StoreAccessors(t *testing.T) {
	first := &mockStore{}
	second := &mockStore{}

	bm := NewBookManager(first)
	assert.Same(t, first, bm.Store())

	bm.SetStore(second)
	assert.Same(t, second, bm.Store())
}

func TestOpenBookManager(t *testing.T) {
	ctx := context.Background()
	bm, err := OpenBookManager(DriverSQLite, filepath.Join(t.TempDir(), "lib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bm.Close() })

	first, second := testBooks()
	require.NoError(t, bm.AddAll(ctx, []*Book{first, second}))

	got, err := bm.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, *second, got)

	require.NoError(t, bm.RemoveAll(ctx, []*Book{first, second}))
	all, err := bm.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = OpenBookManager("oracle", "x")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestPrettyBook(t *testing.T) {
	line := PrettyBook(Book{ID: 7, Name: "1984", Author: "George Orwell", PrintYear: 1949, Read: true})
	assert.Len(t, line, len(BookHeader))
	assert.Contains(t, line, "George Orwell")
	assert.Equal(t, "7     1984", line[:10])
}
