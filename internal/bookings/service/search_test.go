package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "gymcore/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearch(quals *fakeQualificationRepo, bookings *fakeBookingRepo, windows *fakeWindowRepo) TrainerSearch {
	cfg := testConfig()
	return NewTrainerSearch(quals, NewAvailabilityChecker(bookings, windows, cfg), cfg)
}

func TestFindAvailableTrainers_ExcludesUnqualifiedAndUnavailable(t *testing.T) {
	windows := newFakeWindowRepo()
	windows.add(trainer1, time.Monday, "09:00", "17:00")
	windows.add(trainer2, time.Monday, "09:00", "17:00")
	windows.add(trainer3, time.Monday, "09:00", "17:00")
	bookings := newFakeBookingRepo(confirmedBooking(trainer2, memberB, monday(10, 0), 60))
	quals := &fakeQualificationRepo{trainers: map[string][]string{service1: {trainer1, trainer2}}}

	got, err := newSearch(quals, bookings, windows).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 60)
	require.NoError(t, err)
	assert.Equal(t, []string{trainer1}, got)
}

func TestFindAvailableTrainers_KeepsCandidateOrder(t *testing.T) {
	windows := newFakeWindowRepo()
	for _, id := range []string{trainer1, trainer2, trainer3} {
		windows.add(id, time.Monday, "06:00", "22:00")
	}
	quals := &fakeQualificationRepo{trainers: map[string][]string{service1: {trainer3, trainer1, trainer2}}}

	got, err := newSearch(quals, newFakeBookingRepo(), windows).FindAvailableTrainers(context.Background(), service1, monday(18, 0), 45)
	require.NoError(t, err)
	assert.Equal(t, []string{trainer3, trainer1, trainer2}, got)
}

func TestFindAvailableTrainers_ScheduleMismatchExcluded(t *testing.T) {
	windows := newFakeWindowRepo()
	windows.add(trainer1, time.Monday, "14:00", "17:00")
	windows.add(trainer2, time.Monday, "09:00", "12:00")
	quals := &fakeQualificationRepo{trainers: map[string][]string{service1: {trainer1, trainer2, trainer3}}}

	got, err := newSearch(quals, newFakeBookingRepo(), windows).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 60)
	require.NoError(t, err)
	assert.Equal(t, []string{trainer2}, got)
}

func TestFindAvailableTrainers_NobodyQualified(t *testing.T) {
	quals := &fakeQualificationRepo{trainers: map[string][]string{}}
	windows := newFakeWindowRepo()

	got, err := newSearch(quals, newFakeBookingRepo(), windows).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 60)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, windows.callCount())
}

func TestFindAvailableTrainers_NobodyAvailable(t *testing.T) {
	quals := &fakeQualificationRepo{trainers: map[string][]string{service1: {trainer1, trainer2}}}

	got, err := newSearch(quals, newFakeBookingRepo(), newFakeWindowRepo()).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 60)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindAvailableTrainers_StoreFaultAborts(t *testing.T) {
	windows := newFakeWindowRepo()
	windows.add(trainer1, time.Monday, "09:00", "17:00")
	windows.add(trainer2, time.Monday, "09:00", "17:00")
	windows.errFor[trainer2] = errors.New("socket closed")
	quals := &fakeQualificationRepo{trainers: map[string][]string{service1: {trainer1, trainer2}}}

	got, err := newSearch(quals, newFakeBookingRepo(), windows).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 60)
	assert.Nil(t, got)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
}

func TestFindAvailableTrainers_QualificationFault(t *testing.T) {
	quals := &fakeQualificationRepo{err: errors.New("socket closed")}

	_, err := newSearch(quals, newFakeBookingRepo(), newFakeWindowRepo()).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 60)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
}

func TestFindAvailableTrainers_InvalidDuration(t *testing.T) {
	quals := &fakeQualificationRepo{trainers: map[string][]string{service1: {trainer1}}}

	_, err := newSearch(quals, newFakeBookingRepo(), newFakeWindowRepo()).FindAvailableTrainers(context.Background(), service1, monday(10, 0), 0)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}
