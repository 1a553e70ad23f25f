package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/screens/home"
	"github.com/abhisek/cloudverse/internal/screens/topics"
	"github.com/abhisek/cloudverse/internal/screens/welcome"
	"github.com/abhisek/cloudverse/internal/store"
)

var dbCounter atomic.Int64

func testServices(t *testing.T, now *time.Time) *screen.Services {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:apptest%d?mode=memory&cache=shared", dbCounter.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := func() time.Time { return *now }
	ps := progress.New(st.ProgressRepo(), progress.WithClock(clock))
	require.NoError(t, ps.Load(context.Background()))
	return &screen.Services{Catalog: catalog.MustDefault(), Progress: ps, Now: clock}
}

func TestApp_StartsOnSplash(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	m := newAppModel(testServices(t, &now))
	assert.IsType(t, &welcome.WelcomeScreen{}, m.router.Active())
}

func TestApp_EscPopsUnlessCapturing(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	svc := testServices(t, &now)
	m := newAppModel(svc)
	m.router.Replace(home.New(svc))

	list := topics.New(svc)
	m.router.Push(list)
	require.Equal(t, 2, m.router.Depth())

	_, cmd := m.Update(tea.KeyPressMsg{Code: '/', Text: "/"})
	_ = cmd
	require.True(t, list.CapturingInput())

	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd, "esc goes to the search box, not the router")
	assert.False(t, list.CapturingInput())
	assert.Equal(t, 2, m.router.Depth())

	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 1, m.router.Depth())
}

func TestApp_QuitRecordsReadingTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	svc := testServices(t, &now)
	m := newAppModel(svc)
	m.router.Replace(home.New(svc))

	topic := svc.Catalog.Topics()[0]
	m.router.Push(topics.NewReader(svc, topic))
	now = now.Add(2 * time.Minute)

	cmd := m.quit()
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.router.Depth())

	tp, ok := svc.Progress.Topic(topic.ID)
	require.True(t, ok)
	assert.Equal(t, 120, tp.TimeSpent)
}
