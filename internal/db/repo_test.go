package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citabot/pkg"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn), mock
}

func TestFindByDNI(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT dni, first_name`).
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows([]string{
			"dni", "first_name", "paternal_surname", "maternal_surname", "age", "clinical_record_id",
		}).AddRow("12345678", "Maria", "Lopez", "Garcia", 34, "HC-1001"))

	p, err := repo.FindByDNI(context.Background(), "12345678")

	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez Garcia", p.FullName())
	assert.Equal(t, 34, p.Age)
	assert.Equal(t, "HC-1001", p.ClinicalRecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDNINotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT dni, first_name`).
		WithArgs("00000000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByDNI(context.Background(), "00000000")

	assert.ErrorIs(t, err, pkg.ErrPatientNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM specialties WHERE active ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "Cardiología").
			AddRow(2, "Neurología"))

	catalog, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, pkg.Specialty{ID: 1, Name: "Cardiología"}, catalog[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailable(t *testing.T) {
	repo, mock := newMockRepo(t)

	day1 := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WITH roster`).
		WithArgs(4, pkg.ShiftMorning).
		WillReturnRows(sqlmock.NewRows([]string{
			"schedule_id", "visit_date", "id", "name", "free_count", "first_free_time",
		}).
			AddRow(10, day1, "M001", "Perez", 17, "08:00").
			AddRow(11, day2, "M002", "Quispe", 5, "10:15"))

	slots, err := repo.ListAvailable(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 10, slots[0].ScheduleID)
	assert.Equal(t, "Perez", slots[0].DoctorName)
	assert.Equal(t, 17, slots[0].FreeCount)
	assert.Equal(t, "08:00", slots[0].FirstFreeTime)
	assert.True(t, slots[1].Date.Equal(day2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`WITH roster`).
		WithArgs(4, pkg.ShiftMorning).
		WillReturnRows(sqlmock.NewRows([]string{
			"schedule_id", "visit_date", "id", "name", "free_count", "first_free_time",
		}))

	slots, err := repo.ListAvailable(context.Background(), 4)

	require.NoError(t, err)
	assert.Empty(t, slots)
}

func validBookingRequest() pkg.BookingRequest {
	return pkg.BookingRequest{
		ScheduleID:  10,
		SpecialtyID: 4,
		DoctorID:    "M001",
		Date:        "2026-09-07",
		Time:        "08:00",
		DNI:         "12345678",
		Shift:       pkg.ShiftMorning,
	}
}

func TestBook(t *testing.T) {
	repo, mock := newMockRepo(t)
	registeredAt := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT birth_date FROM patients`).
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows([]string{"birth_date"}).
			AddRow(time.Date(1992, 3, 15, 0, 0, 0, 0, time.UTC)))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(10, 4, "M001", "2026-09-07", "08:00", pkg.ShiftMorning, "12345678", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "registered_at"}).AddRow(int64(55), registeredAt))
	mock.ExpectCommit()

	b, err := repo.Book(context.Background(), validBookingRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(55), b.ID)
	assert.Equal(t, "2026-09-07", b.Date)
	assert.Equal(t, "08:00", b.Time)
	assert.True(t, b.RegisteredAt.Equal(registeredAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookMissingFieldNeverTouchesDB(t *testing.T) {
	repo, mock := newMockRepo(t)

	req := validBookingRequest()
	req.Time = ""
	req.DNI = ""
	_, err := repo.Book(context.Background(), req)

	var incomplete *pkg.IncompleteBookingError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"time", "dni"}, incomplete.Missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookUnresolvedPatient(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT birth_date FROM patients`).
		WithArgs("12345678").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), validBookingRequest())

	assert.ErrorIs(t, err, pkg.ErrPatientUnresolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSlotTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT birth_date FROM patients`).
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows([]string{"birth_date"}).
			AddRow(time.Date(1992, 3, 15, 0, 0, 0, 0, time.UTC)))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), validBookingRequest())

	assert.ErrorIs(t, err, pkg.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookOtherInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT birth_date FROM patients`).
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows([]string{"birth_date"}).
			AddRow(time.Date(1992, 3, 15, 0, 0, 0, 0, time.UTC)))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), validBookingRequest())

	require.Error(t, err)
	assert.NotErrorIs(t, err, pkg.ErrSlotTaken)
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(1992, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"birthday passed", time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), 34},
		{"birthday today", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 34},
		{"birthday tomorrow", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), 33},
		{"earlier month", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ageAt(birth, tt.now))
		})
	}
}
