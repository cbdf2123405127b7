package gtfsrt

import (
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/siri-departures/departures"
	"github.com/theoremus-urban-solutions/siri-departures/siri"
)

func ptr(s string) *string { return &s }

func TestMarshalTripUpdates(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	snapshot := departures.Result{
		"S2": {
			{LineRef: ptr("STIF:Line::C01742:"), ExpectedDepartureTime: ptr("2024-05-01T08:37:00Z"), AimedDepartureTime: ptr("2024-05-01T08:35:00Z")},
			{LineRef: ptr("L9"), ExpectedDepartureTime: ptr("not a time")},
		},
		"S1": {
			{AimedDepartureTime: ptr("2024-05-01T10:00:00+02:00")},
		},
		"S3": {},
	}

	data, err := MarshalTripUpdates(snapshot, at)
	require.NoError(t, err)

	var feed gtfsrtpb.FeedMessage
	require.NoError(t, proto.Unmarshal(data, &feed))
	assert.Equal(t, "2.0", feed.GetHeader().GetGtfsRealtimeVersion())
	assert.Equal(t, gtfsrtpb.FeedHeader_FULL_DATASET, feed.GetHeader().GetIncrementality())
	assert.EqualValues(t, at.Unix(), feed.GetHeader().GetTimestamp())

	require.Len(t, feed.GetEntity(), 2)

	first := feed.GetEntity()[0]
	assert.Equal(t, "S1:0", first.GetId())
	stu := first.GetTripUpdate().GetStopTimeUpdate()[0]
	assert.Equal(t, "S1", stu.GetStopId())
	assert.EqualValues(t, at.Add(-30*time.Minute).Unix(), stu.GetDeparture().GetTime())
	assert.Nil(t, stu.GetDeparture().Delay)
	assert.Empty(t, first.GetTripUpdate().GetTrip().GetRouteId())

	second := feed.GetEntity()[1]
	assert.Equal(t, "S2:0", second.GetId())
	assert.Equal(t, "C01742", second.GetTripUpdate().GetTrip().GetRouteId())
	dep := second.GetTripUpdate().GetStopTimeUpdate()[0].GetDeparture()
	assert.EqualValues(t, 120, dep.GetDelay())
}

func TestBuildTripUpdates_Empty(t *testing.T) {
	feed := BuildTripUpdates(departures.Result{"S1": []siri.Departure{}}, time.Unix(0, 0))
	assert.Empty(t, feed.GetEntity())
	_, err := proto.Marshal(feed)
	assert.NoError(t, err)
}
