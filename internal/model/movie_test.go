package model

import (
	"database/sql"
	"testing"
	"time"
)

func TestMovieViewAggregatesRatings(t *testing.T) {
	m := Movie{
		ID:            1,
		Title:         "Heat",
		ReleaseDate:   sql.NullTime{Time: time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC), Valid: true},
		AverageRating: sql.NullFloat64{Float64: 2, Valid: true},
		Ratings: []Rating{
			{UserID: 1, Rating: 7},
			{UserID: 2, Rating: 8},
			{UserID: 3, Rating: 10},
		},
	}
	v := m.View()
	if v.AverageRating == nil || *v.AverageRating != 25.0/3.0 {
		t.Fatalf("unexpected average: %v", v.AverageRating)
	}
	if v.NumRatings != 3 || len(v.Ratings) != 3 {
		t.Fatalf("unexpected rating count: %d/%d", v.NumRatings, len(v.Ratings))
	}
	if v.Ratings[0].UserID != 1 || v.Ratings[2].Rating != 10 {
		t.Fatalf("ratings out of insertion order: %+v", v.Ratings)
	}
	if v.ReleaseDate == nil || *v.ReleaseDate != "1995-12-15" {
		t.Fatalf("unexpected release date: %v", v.ReleaseDate)
	}
	if v.Description != nil || v.TicketPrice != nil {
		t.Fatal("null columns should serialize as nil")
	}
}

func TestMovieViewWithoutRatings(t *testing.T) {
	v := Movie{ID: 2, Title: "Untitled"}.View()
	if v.AverageRating != nil {
		t.Fatalf("expected nil average, got %v", *v.AverageRating)
	}
	if v.NumRatings != 0 || v.Ratings == nil {
		t.Fatalf("expected empty non-nil ratings, got %#v", v.Ratings)
	}
	if v.ReleaseDate != nil {
		t.Fatal("expected nil release date")
	}
}

func TestInRange(t *testing.T) {
	for _, v := range []int{0, 1, 5, 10} {
		if !InRange(v) {
			t.Errorf("%d should be in range", v)
		}
	}
	for _, v := range []int{-1, 11, 100} {
		if InRange(v) {
			t.Errorf("%d should be out of range", v)
		}
	}
}
