package gtfsrt

import (
	"sort"
	"strconv"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/siri-departures/departures"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
	"github.com/theoremus-urban-solutions/siri-departures/siri"
	"github.com/theoremus-urban-solutions/siri-departures/utils"
)

// BuildTripUpdates converts snapshot into a full-dataset TripUpdates feed stamped with at.
// Departures without a parsable expected or aimed time are left out.
func BuildTripUpdates(snapshot departures.Result, at time.Time) *gtfsrtpb.FeedMessage {
	incrementality := gtfsrtpb.FeedHeader_FULL_DATASET
	msg := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      &incrementality,
			Timestamp:           proto.Uint64(uint64(at.Unix())),
		},
	}

	stopIDs := make([]string, 0, len(snapshot))
	for id := range snapshot {
		stopIDs = append(stopIDs, id)
	}
	sort.Strings(stopIDs)

	for _, stopID := range stopIDs {
		for i, dep := range snapshot[stopID] {
			event, ok := stopTimeEvent(dep)
			if !ok {
				continue
			}
			trip := &gtfsrtpb.TripDescriptor{}
			if dep.LineRef != nil {
				trip.RouteId = proto.String(netex.ShortLineID(*dep.LineRef))
			}
			msg.Entity = append(msg.Entity, &gtfsrtpb.FeedEntity{
				Id: proto.String(stopID + ":" + strconv.Itoa(i)),
				TripUpdate: &gtfsrtpb.TripUpdate{
					Trip: trip,
					StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{{
						StopId:    proto.String(stopID),
						Departure: event,
					}},
				},
			})
		}
	}
	return msg
}

// MarshalTripUpdates is BuildTripUpdates encoded as protobuf.
func MarshalTripUpdates(snapshot departures.Result, at time.Time) ([]byte, error) {
	return proto.Marshal(BuildTripUpdates(snapshot, at))
}

func stopTimeEvent(dep siri.Departure) (*gtfsrtpb.TripUpdate_StopTimeEvent, bool) {
	expected, hasExpected := parse(dep.ExpectedDepartureTime)
	aimed, hasAimed := parse(dep.AimedDepartureTime)
	switch {
	case hasExpected && hasAimed:
		return &gtfsrtpb.TripUpdate_StopTimeEvent{
			Time:  proto.Int64(expected.Unix()),
			Delay: proto.Int32(int32(expected.Sub(aimed) / time.Second)),
		}, true
	case hasExpected:
		return &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(expected.Unix())}, true
	case hasAimed:
		return &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(aimed.Unix())}, true
	}
	return nil, false
}

func parse(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	t, err := utils.ParseISO8601(*s)
	return t, err == nil
}
