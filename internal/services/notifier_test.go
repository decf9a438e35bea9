package stamps

import (
	"context"
	"testing"

	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCompareValues(t *testing.T) {
	tests := []struct {
		value1   any
		value2   any
		expected int
	}{
		{"2025-01-02", "2025-03-03", -1},
		{"2025-01-02", "2025-01-02", 0},
		{"2025-01-02", "2025-01-01", 1},
		{344.3, 200, 1},
		{344.3, 344.3, 0},
		{200, 344.3, -1},
		{2, int64(1), 1},
		{true, true, 0},
		{true, false, -1},
		{"StrEqual", "StrEqual", 0},
		{"StrEqual", "StrNotEqual", -1},
	}

	for _, ts := range tests {
		result, err := compareValues(ts.value1, ts.value2)
		require.NoError(t, err, "value1=%v value2=%v", ts.value1, ts.value2)
		require.Equal(t, ts.expected, result, "value1=%v value2=%v", ts.value1, ts.value2)
	}
}

func TestCompareValuesErrors(t *testing.T) {
	tests := []struct {
		value1 any
		value2 any
	}{
		{"2025-01-02", true},
		{"2025-01-02", 244.43},
		{false, 244.43},
		{"2025-01-02", "tomorrow"},
		{nil, 1},
	}

	for _, ts := range tests {
		_, err := compareValues(ts.value1, ts.value2)
		require.Error(t, err, "value1=%v value2=%v", ts.value1, ts.value2)
	}
}

func TestCheckCondition(t *testing.T) {
	tests := []struct {
		field    any
		operator string
		cond     any
		expected bool
	}{
		{"2025-01-02", ">", "2025-03-03", false},
		{"2025-01-02", "=", "2025-01-02", true},
		{"2025-01-02", "<=", "2025-01-02", true},
		{"2025-01-02", "<", "2025-03-03", true},
		{344.3, "<", 200, false},
		{344.3, "=", 200, false},
		{344.3, ">=", 200, true},
		{8, "<=", 8, true},
		{8, ">=", 9, false},
		{8, "!=", float64(8), false},
		{true, "=", true, true},
		{true, "=", false, false},
		{"StrEqual", "=", "StrEqual", true},
		{"StrEqual", "=", "StrNotEqual", false},
	}

	for _, ts := range tests {
		result, err := checkCondition(ts.cond, ts.operator, ts.field)
		require.NoError(t, err, "field=%v %s cond=%v", ts.field, ts.operator, ts.cond)
		require.Equal(t, ts.expected, result, "field=%v %s cond=%v", ts.field, ts.operator, ts.cond)
	}

	_, err := checkCondition(1, "~", 1)
	require.Error(t, err)
}

func TestPredefinedSegments(t *testing.T) {
	cfg := model.DefaultCardConfig()
	tests := []struct {
		stamps   int
		segments map[string]bool
	}{
		{0, map[string]bool{model.SegmentAll: true, model.SegmentActive: false, model.SegmentInactive: true, model.SegmentClose: false}},
		{3, map[string]bool{model.SegmentAll: true, model.SegmentActive: true, model.SegmentInactive: false, model.SegmentClose: false}},
		{8, map[string]bool{model.SegmentAll: true, model.SegmentActive: true, model.SegmentInactive: false, model.SegmentClose: true}},
	}
	for _, ts := range tests {
		data := customerFields(newCustomer("c", ts.stamps), cfg)
		for name, expected := range ts.segments {
			ok, err := matchSegment(model.Segments[name], data)
			require.NoError(t, err)
			require.Equal(t, expected, ok, "stamps=%d segment=%s", ts.stamps, name)
		}
	}
}

func TestCustomSegment(t *testing.T) {
	cfg := model.DefaultCardConfig()
	segment := model.Segment{
		Include: []model.Criteria{
			{Operator: "OR", Conditions: []model.Condition{
				{Field: "rewardsRedeemed", Operator: ">=", Value: float64(1)},
				{Field: "joinedDate", Operator: ">", Value: "2025-03-01"},
			}},
		},
		Exclude: []model.Criteria{
			{Operator: "AND", Conditions: []model.Condition{{Field: "id", Operator: "=", Value: "vip"}}},
		},
	}

	regular := newCustomer("regular", 1)
	regular.RewardsRedeemed = 2
	fresh := newCustomer("fresh", 1)
	fresh.JoinedDate = testNow
	old := newCustomer("old", 1)
	vip := newCustomer("vip", 1)
	vip.RewardsRedeemed = 5

	expected := map[string]bool{"regular": true, "fresh": true, "old": false, "vip": false}
	for _, c := range []model.Customer{regular, fresh, old, vip} {
		ok, err := matchSegment(segment, customerFields(c, cfg))
		require.NoError(t, err)
		require.Equal(t, expected[c.ID], ok, c.ID)
	}

	bad := model.Segment{Include: []model.Criteria{{Operator: "XOR"}}}
	_, err := matchSegment(bad, customerFields(regular, cfg))
	require.Error(t, err)
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10,
		newCustomer("c1", 0),
		newCustomer("c2", 8),
		newCustomer("c3", 9),
		newCustomer("c4", 4),
	)
	rec := &recorder{}
	env.notifier.SetPublisher(rec)

	campaign, err := env.notifier.Broadcast(ctx, CampaignRequest{
		Title:   "Almost there",
		Message: "One more visit for a free coffee",
		Segment: model.SegmentClose,
	})
	require.NoError(t, err)
	require.Equal(t, 2, campaign.Recipients)
	require.Equal(t, model.CampaignSent, campaign.Status)
	require.Equal(t, model.ChannelPush, campaign.Type)
	require.Equal(t, model.SegmentClose, campaign.Segment)
	require.Len(t, rec.notifications, 2)

	for id, count := range map[string]int{"c1": 0, "c2": 1, "c3": 1, "c4": 0} {
		notifications, err := env.notifier.List(ctx, id)
		require.NoError(t, err)
		require.Len(t, notifications, count, id)
		for _, n := range notifications {
			require.Equal(t, model.NotifyCampaign, n.Type)
		}
	}

	all, err := env.notifier.Broadcast(ctx, CampaignRequest{Title: "Hello", Message: "News", Channel: model.ChannelEmail})
	require.NoError(t, err)
	require.Equal(t, 4, all.Recipients)
	require.Equal(t, model.SegmentAll, all.Segment)

	campaigns, err := env.notifier.Campaigns(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	require.Equal(t, all.ID, campaigns[0].ID)
}

func TestBroadcastValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10, newCustomer("c1", 0))
	before, err := env.ledger.Snapshot(ctx)
	require.NoError(t, err)

	requests := []CampaignRequest{
		{Message: "no title"},
		{Title: "no message"},
		{Title: "t", Message: "m", Channel: "sms"},
		{Title: "t", Message: "m", Segment: "nobody"},
		{Title: "t", Message: "m", Custom: &model.Segment{Include: []model.Criteria{
			{Conditions: []model.Condition{{Field: "stamps", Operator: ">", Value: "many"}}},
		}}},
	}
	for _, req := range requests {
		_, err := env.notifier.Broadcast(ctx, req)
		require.ErrorIs(t, err, model.ErrValidation, "%+v", req)
	}

	after, err := env.ledger.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestScheduleCampaign(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10, newCustomer("c1", 0))

	_, err := env.notifier.Schedule(ctx, CampaignRequest{Title: "t", Message: "m"}, testNow.Add(-1))
	require.ErrorIs(t, err, model.ErrValidation)

	at := testNow.AddDate(0, 0, 1)
	campaign, err := env.notifier.Schedule(ctx, CampaignRequest{Title: "Weekend", Message: "Double stamps"}, at)
	require.NoError(t, err)
	require.Equal(t, model.CampaignScheduled, campaign.Status)
	require.Equal(t, 0, campaign.Recipients)

	notifications, err := env.notifier.List(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, notifications)
}

func TestSendAndRead(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 10, newCustomer("c1", 0))

	_, err := env.notifier.Send(ctx, "c1", "", "body")
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = env.notifier.Send(ctx, "nobody", "title", "body")
	require.ErrorIs(t, err, model.ErrCustomerNotFound)

	first, err := env.notifier.Send(ctx, "c1", "Welcome", "Thanks for joining")
	require.NoError(t, err)
	_, err = env.notifier.Send(ctx, "c1", "Reminder", "Come back soon")
	require.NoError(t, err)

	unread, err := env.notifier.UnreadCount(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, unread)

	require.NoError(t, env.notifier.MarkRead(ctx, first.ID))
	require.NoError(t, env.notifier.MarkRead(ctx, first.ID))
	unread, err = env.notifier.UnreadCount(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	require.ErrorIs(t, env.notifier.MarkRead(ctx, "notif_missing"), model.ErrNotFound)
}
