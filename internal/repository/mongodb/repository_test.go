package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/sitestock/internal/domain/models"
)

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(models.ListFilter{}, "date"))

	got := buildFilter(models.ListFilter{
		ItemCode: "CEM001",
		Range:    models.DateRange{From: "2024-01-01", To: "2024-01-31"},
	}, "delivery_date")

	assert.Equal(t, bson.M{
		"item_code":     "CEM001",
		"delivery_date": bson.M{"$gte": "2024-01-01", "$lte": "2024-01-31"},
	}, got)
}

func TestBuildFilter_OpenRange(t *testing.T) {
	got := buildFilter(models.ListFilter{Range: models.DateRange{To: "2024-02-01"}}, "date")
	assert.Equal(t, bson.M{"date": bson.M{"$lte": "2024-02-01"}}, got)
}

func TestSortSpec(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, sortSpec(models.ListFilter{}))
	assert.Equal(t, bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}, sortSpec(models.ListFilter{OrderBy: "date", Descending: true}))
}
