package testinfra

import (
	"os"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

// TaxiTrip mirrors a subset of the NYC yellow taxi trip record layout.
type TaxiTrip struct {
	VendorID        int64     `parquet:"VendorID"`
	PickupDatetime  time.Time `parquet:"tpep_pickup_datetime"`
	DropoffDatetime time.Time `parquet:"tpep_dropoff_datetime"`
	PassengerCount  *float64  `parquet:"passenger_count,optional"`
	StoreAndFwdFlag string    `parquet:"store_and_fwd_flag"`
	FareAmount      float64   `parquet:"fare_amount"`
}

// RawTaxiTrip carries its datetimes as text, so tests can stage malformed values.
type RawTaxiTrip struct {
	VendorID        int64   `parquet:"VendorID"`
	PickupDatetime  string  `parquet:"tpep_pickup_datetime"`
	DropoffDatetime string  `parquet:"tpep_dropoff_datetime"`
	FareAmount      float64 `parquet:"fare_amount"`
}

// TripEpoch is the pickup time of the first generated trip.
var TripEpoch = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// TaxiTrips generates n deterministic trips. Trip i is picked up i minutes after
// TripEpoch, lasts 90 seconds and has no passenger count when i is a multiple of 5.
func TaxiTrips(n int) []TaxiTrip {
	trips := make([]TaxiTrip, n)
	for i := range trips {
		pickup := TripEpoch.Add(time.Duration(i) * time.Minute)
		trips[i] = TaxiTrip{
			VendorID:        int64(i%2 + 1),
			PickupDatetime:  pickup,
			DropoffDatetime: pickup.Add(90 * time.Second),
			StoreAndFwdFlag: "N",
			FareAmount:      float64(i) + 0.5,
		}
		if i%5 != 0 {
			count := float64(i%4 + 1)
			trips[i].PassengerCount = &count
		}
	}
	return trips
}

// RawTaxiTrips generates n trips with well-formed text datetimes.
func RawTaxiTrips(n int) []RawTaxiTrip {
	trips := make([]RawTaxiTrip, n)
	for i := range trips {
		pickup := TripEpoch.Add(time.Duration(i) * time.Minute)
		trips[i] = RawTaxiTrip{
			VendorID:        int64(i%2 + 1),
			PickupDatetime:  pickup.Format("2006-01-02 15:04:05"),
			DropoffDatetime: pickup.Add(90 * time.Second).Format("2006-01-02 15:04:05"),
			FareAmount:      float64(i) + 0.5,
		}
	}
	return trips
}

// WriteParquet writes rows to path using rowGroupSize rows per row group
// (zero keeps the writer default).
func WriteParquet[T any](t testing.TB, path string, rows []T, rowGroupSize int64) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create parquet fixture: %v", err)
	}
	defer f.Close()

	var opts []parquet.WriterOption
	if rowGroupSize > 0 {
		opts = append(opts, parquet.MaxRowsPerRowGroup(rowGroupSize))
	}

	w := parquet.NewGenericWriter[T](f, opts...)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write parquet fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close parquet writer: %v", err)
	}
}
