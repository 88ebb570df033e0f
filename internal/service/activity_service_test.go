package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/domain"
)

type stubNotifications []domain.Notification

func (s stubNotifications) Recent(n int) []domain.Notification {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

func TestFeedMergesSortsAndCaps(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	notes := stubNotifications{
		{ID: "n1", Title: "Assigned", Type: domain.NotificationAssignment, CreatedAt: now.Add(-time.Hour)},
		{ID: "n2", Type: domain.NotificationFollowUp},
		{ID: "n3", Title: "Old", CreatedAt: now.Add(-72 * time.Hour)},
	}
	repo := new(MockActivityRepository)
	repo.On("List", mock.Anything, 1, 2).Return(&domain.ActivityPage{Events: []domain.ActivityEvent{
		{ID: "a1", Actor: "Ali", Action: "created lead", Target: "Mona", Timestamp: now.Add(-30 * time.Minute)},
		{ID: "a2", Action: "deleted unit", Timestamp: now.Add(-48 * time.Hour)},
	}, Page: 1, TotalPages: 1}, nil)

	svc := NewActivityService(notes, repo, config.FeedConfig{NotificationTake: 3, ActivityLimit: 2, Cap: 4}, nil)
	svc.now = func() time.Time { return now }

	feed := svc.Feed(context.Background())
	assert.False(t, feed.Degraded)
	require.Len(t, feed.Items, 4)

	var ids []string
	for _, item := range feed.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"n2", "a1", "n1", "a2"}, ids)
	assert.True(t, feed.Items[0].Synthetic)
	assert.Equal(t, "follow up", feed.Items[0].Title)
	assert.Equal(t, "icon-plus", feed.Items[1].Icon)
	assert.Equal(t, "Ali created lead", feed.Items[1].Title)
	assert.Equal(t, "icon-user-plus", feed.Items[2].Icon)
}

func TestFeedDegradesWhenActivityLogFails(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("List", mock.Anything, 1, 5).Return(nil, errors.New("down"))

	svc := NewActivityService(stubNotifications{{ID: "n1", Title: "x"}}, repo, config.FeedConfig{}, nil)
	feed := svc.Feed(context.Background())
	assert.True(t, feed.Degraded)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "n1", feed.Items[0].ID)
}

func TestPagerNavigatesForwardAndBack(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("List", mock.Anything, 1, 10).Return(&domain.ActivityPage{Events: []domain.ActivityEvent{{ID: "a1"}}, TotalPages: 2}, nil)
	repo.On("List", mock.Anything, 2, 10).Return(&domain.ActivityPage{Events: []domain.ActivityEvent{{ID: "a2"}}, TotalPages: 2}, nil)
	pager := NewActivityPager(repo, 10, nil)
	ctx := context.Background()

	snap, err := pager.Prev(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Page)

	snap, err = pager.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Page)
	assert.True(t, snap.HasNext)
	assert.False(t, snap.HasPrev)

	snap, err = pager.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", snap.Events[0].ID)
	assert.False(t, snap.HasNext)

	snap, _ = pager.Next(ctx)
	assert.Equal(t, 2, snap.Page)
	repo.AssertNumberOfCalls(t, "List", 2)

	snap, err = pager.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Page)
}

func TestPagerLoadingGuardSkipsDuplicateRequests(t *testing.T) {
	repo := new(MockActivityRepository)
	release := make(chan struct{})
	started := make(chan struct{})
	repo.On("List", mock.Anything, 1, 20).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&domain.ActivityPage{Events: []domain.ActivityEvent{{ID: "a1"}}, TotalPages: 1}, nil).Once()
	pager := NewActivityPager(repo, 0, nil)

	done := make(chan PagerSnapshot)
	go func() {
		snap, _ := pager.Open(context.Background())
		done <- snap
	}()
	<-started

	snap, err := pager.Open(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Events)

	close(release)
	first := <-done
	assert.Equal(t, 1, first.Page)
	assert.False(t, first.Loading)
	repo.AssertNumberOfCalls(t, "List", 1)
}

func TestPagerKeepsPageOnFailure(t *testing.T) {
	repo := new(MockActivityRepository)
	repo.On("List", mock.Anything, 1, 20).Return(&domain.ActivityPage{Events: []domain.ActivityEvent{{ID: "a1"}}, TotalPages: 3}, nil)
	repo.On("List", mock.Anything, 2, 20).Return(nil, errors.New("timeout"))
	pager := NewActivityPager(repo, 20, nil)

	_, err := pager.Open(context.Background())
	require.NoError(t, err)
	snap, err := pager.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, "a1", snap.Events[0].ID)
	assert.False(t, snap.Loading)
}
