package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pagedSource struct {
	reports [][]emay.ReportEntry
	mo      [][]emay.MoEntry
	calls   int
	reject  bool
}

func (s *pagedSource) Reports(context.Context, int) (sms.ReportsResult, error) {
	s.calls++
	if s.reject {
		return sms.ReportsResult{Code: emay.IPError}, nil
	}
	if len(s.reports) == 0 {
		return sms.ReportsResult{Success: true, Code: emay.Success}, nil
	}
	page := s.reports[0]
	s.reports = s.reports[1:]
	return sms.ReportsResult{Success: true, Reports: page, Code: emay.Success}, nil
}

func (s *pagedSource) Mo(context.Context, int) (sms.MoResult, error) {
	if len(s.mo) == 0 {
		return sms.MoResult{Success: true, Code: emay.Success}, nil
	}
	page := s.mo[0]
	s.mo = s.mo[1:]
	return sms.MoResult{Success: true, Messages: page, Code: emay.Success}, nil
}

type fakeDelivery map[string]string

func (f fakeDelivery) UpdateDelivery(_ context.Context, smsID, state string) (int64, error) {
	f[smsID] = state
	return 1, nil
}

type fakeArchive struct {
	reports []model.Report
	mo      []model.Mo
}

func (f *fakeArchive) InsertReports(_ context.Context, rows []model.Report) error {
	f.reports = append(f.reports, rows...)
	return nil
}

func (f *fakeArchive) InsertMo(_ context.Context, rows []model.Mo) error {
	f.mo = append(f.mo, rows...)
	return nil
}

func (f *fakeArchive) ListReports(context.Context, string, int, int) ([]model.Report, error) {
	return nil, nil
}

func fullPage(prefix string) []emay.ReportEntry {
	page := make([]emay.ReportEntry, emay.MaxFetch)
	for i := range page {
		page[i] = emay.ReportEntry{SmsID: fmt.Sprintf("%s-%d", prefix, i), State: model.DeliveredState}
	}
	return page
}

func TestReportPuller_DrainsPages(t *testing.T) {
	src := &pagedSource{
		reports: [][]emay.ReportEntry{
			fullPage("p1"),
			{{SmsID: "last", Mobile: "13800000001", State: "UNDELIV", Desc: "blocked"}},
			{{SmsID: "never"}},
		},
		mo: [][]emay.MoEntry{{{Mobile: "13800000001", Content: "TD", MoTime: "20240309080507"}}},
	}
	delivery := fakeDelivery{}
	archive := &fakeArchive{}
	at := time.Date(2024, 3, 9, 8, 5, 7, 0, time.UTC)

	p := NewReportPuller(src, delivery, archive, zap.NewNop(), time.Minute)
	p.now = func() time.Time { return at }

	require.NoError(t, p.PullOnce(context.Background()))

	assert.Equal(t, 2, src.calls, "a short page ends the drain")
	assert.Len(t, archive.reports, emay.MaxFetch+1)
	assert.Equal(t, at, archive.reports[0].PulledAt)
	assert.Equal(t, "UNDELIV", delivery["last"])
	assert.Equal(t, model.DeliveredState, delivery["p1-0"])
	assert.NotContains(t, delivery, "never")

	require.Len(t, archive.mo, 1)
	assert.Equal(t, "TD", archive.mo[0].Content)
}

func TestReportPuller_RespectsMaxPages(t *testing.T) {
	src := &pagedSource{reports: [][]emay.ReportEntry{fullPage("a"), fullPage("b"), fullPage("c")}}
	archive := &fakeArchive{}

	p := NewReportPuller(src, fakeDelivery{}, archive, zap.NewNop(), time.Minute)
	p.MaxPages = 2

	require.NoError(t, p.PullOnce(context.Background()))
	assert.Equal(t, 2, src.calls)
	assert.Len(t, archive.reports, 2*emay.MaxFetch)
}

func TestReportPuller_RejectionIsNotAnError(t *testing.T) {
	src := &pagedSource{reject: true}
	archive := &fakeArchive{}

	p := NewReportPuller(src, fakeDelivery{}, archive, zap.NewNop(), time.Minute)

	require.NoError(t, p.PullOnce(context.Background()))
	assert.Empty(t, archive.reports)
}
