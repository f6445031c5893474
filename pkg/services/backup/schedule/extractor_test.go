package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ClassicDaily(t *testing.T) {
	t.Run("single run time means one run per day", func(t *testing.T) {
		raw := json.RawMessage(`{"properties":{"schedulePolicy":{
			"schedulePolicyType":"SimpleSchedulePolicy",
			"scheduleRunFrequency":"Daily",
			"scheduleRunTimes":["2024-01-01T02:00:00Z"]}}}`)

		info, ok := Extract(raw)
		require.True(t, ok)
		assert.Equal(t, 24*time.Hour, *info.Cadence)
	})

	t.Run("cadence is the maximal gap wrapping midnight", func(t *testing.T) {
		raw := json.RawMessage(`{"schedulePolicy":{
			"scheduleRunFrequency":"Daily",
			"scheduleRunTimes":["2024-01-01T00:00:00Z","2024-01-01T08:00:00Z","2024-01-01T12:00:00Z"]}}`)

		info, ok := Extract(raw)
		require.True(t, ok)
		// Gaps 8h, 4h and 12h back around midnight.
		assert.Equal(t, 12*time.Hour, *info.Cadence)
	})
}

func TestExtract_ClassicWeekly(t *testing.T) {
	raw := json.RawMessage(`{"schedulePolicy":{
		"scheduleRunFrequency":"Weekly",
		"ScheduleRunDays":["Sunday","Wednesday"]}}`)

	info, ok := Extract(raw)
	require.True(t, ok)
	// Sunday=0, Wednesday=3: gap 3 days, wrap 4 days.
	assert.Equal(t, 4*24*time.Hour, *info.Cadence)
}

func TestExtract_EnhancedHourly(t *testing.T) {
	raw := json.RawMessage(`{"properties":{"schedulePolicy":{
		"schedulePolicyType":"SimpleSchedulePolicyV2",
		"scheduleRunFrequency":"Hourly",
		"hourlySchedule":{"interval":4,"scheduleWindowDuration":12}}}}`)

	info, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, 4*time.Hour, *info.Cadence)
	require.NotNil(t, info.Window)
	assert.Equal(t, 12*time.Hour, *info.Window)
}

func TestExtract_EnhancedRepeatingInterval(t *testing.T) {
	raw := json.RawMessage(`{"schedulePolicy":{
		"schedulePolicyType":"SimpleSchedulePolicyV2",
		"scheduleIntervals":["R/2024-01-01T00:00:00Z/PT6H","R/2024-01-01T00:00:00Z/PT12H"]}}`)

	info, ok := Extract(raw)
	require.True(t, ok)
	// First interval's trailing duration substring wins.
	assert.Equal(t, 6*time.Hour, *info.Cadence)
}

func TestExtract_WorkloadDatabase(t *testing.T) {
	raw := json.RawMessage(`{"properties":{"subProtectionPolicy":[
		{"policyType":"Full","schedulePolicy":{
			"schedulePolicyType":"SimpleSchedulePolicy",
			"scheduleRunFrequency":"Weekly",
			"scheduleRunDays":["Saturday"]}},
		{"policyType":"Differential","schedulePolicy":{
			"schedulePolicyType":"SimpleSchedulePolicy",
			"scheduleRunFrequency":"Daily",
			"scheduleRunTimes":["2024-01-01T03:00:00Z"]}},
		{"policyType":"Log","schedulePolicy":{
			"schedulePolicyType":"LogSchedulePolicy",
			"scheduleFrequencyInMins":60}}]}}`)

	info, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, *info.Full)
	assert.Equal(t, 24*time.Hour, *info.Differential)
	assert.Equal(t, time.Hour, *info.Log)
	// The log cadence is the effective one.
	assert.Equal(t, time.Hour, *info.Cadence)
}

func TestExtract_WorkloadLogOnly(t *testing.T) {
	raw := json.RawMessage(`{"subProtectionPolicy":[
		{"policyType":"TransactionLog","schedulePolicy":{"scheduleFrequencyInMins":15}}]}`)

	info, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, 15*time.Minute, *info.Cadence)
}

func TestExtract_UnrecognizedShape(t *testing.T) {
	for name, raw := range map[string]json.RawMessage{
		"empty object":    json.RawMessage(`{}`),
		"foreign fields":  json.RawMessage(`{"retentionPolicy":{"dailySchedule":{}}}`),
		"not json":        json.RawMessage(`"nope"`),
		"empty sub list":  json.RawMessage(`{"subProtectionPolicy":[]}`),
		"schedule no cadence": json.RawMessage(`{"schedulePolicy":{"scheduleRunFrequency":"Weekly"}}`),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := Extract(raw)
			assert.False(t, ok)
		})
	}
}

func TestDetect_CaseTolerantFieldNames(t *testing.T) {
	props := map[string]any{
		"SCHEDULEPOLICY": map[string]any{
			"scheduleRunFrequency": "Daily",
			"schedulerunTIMES":     []any{"2024-01-01T04:00:00Z", "2024-01-01T16:00:00Z"},
		},
	}
	v := Detect(props)
	require.NotNil(t, v)
	classic, isClassic := v.(ClassicPolicy)
	require.True(t, isClassic)
	assert.Len(t, classic.RunTimes, 2)
}
