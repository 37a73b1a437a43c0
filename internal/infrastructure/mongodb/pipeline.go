package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haulmarket/billing-service/internal/domain"
	sharedMongo "github.com/haulmarket/billing-service/pkg/mongodb"
)

// buildListingPipeline compiles ShipmentCriteria into an aggregation
// pipeline. A nil criterion contributes no stage, so the empty criteria
// compile to match-all plus the fixed enrichment and projection stages.
//
// Stage order: primary match on indexed shipment fields first, reference
// lookups and derived fields next, the name match after the lookups it
// depends on, then sort, paging and the output projection.
func buildListingPipeline(criteria domain.ShipmentCriteria) []bson.M {
	pipeline := make([]bson.M, 0, 15)

	if match := buildPrimaryMatch(criteria); len(match) > 0 {
		pipeline = append(pipeline, bson.M{"$match": match})
	}

	pipeline = append(pipeline,
		bson.M{"$lookup": bson.M{
			"from":         "customers",
			"localField":   "customerId",
			"foreignField": "_id",
			"as":           "customer",
		}},
		bson.M{"$unwind": bson.M{
			"path":                       "$customer",
			"preserveNullAndEmptyArrays": true,
		}},
		bson.M{"$lookup": bson.M{
			"from":         "drivers",
			"localField":   "driverId",
			"foreignField": "_id",
			"as":           "driver",
		}},
		bson.M{"$unwind": bson.M{
			"path":                       "$driver",
			"preserveNullAndEmptyArrays": true,
		}},
		bson.M{"$lookup": bson.M{
			"from":         "vehicles",
			"localField":   "vehicleTypeId",
			"foreignField": "_id",
			"as":           "vehicle",
		}},
		bson.M{"$unwind": bson.M{
			"path":                       "$vehicle",
			"preserveNullAndEmptyArrays": true,
		}},
		bson.M{"$lookup": bson.M{
			"from":         "billings",
			"localField":   "billingId",
			"foreignField": "_id",
			"as":           "billing",
		}},
		bson.M{"$unwind": bson.M{
			"path":                       "$billing",
			"preserveNullAndEmptyArrays": true,
		}},
	)

	pipeline = append(pipeline, bson.M{"$addFields": bson.M{
		"statusWeight":     statusWeightExpr(),
		"customerFullName": fullNameExpr("$customer"),
		"driverFullName":   fullNameExpr("$driver"),
		"vehicleName":      bson.M{"$ifNull": []interface{}{"$vehicle.name", ""}},
		"billingState":     "$billing.state",
	}})

	if match := buildNameMatch(criteria); len(match) > 0 {
		pipeline = append(pipeline, bson.M{"$match": match})
	}

	pipeline = append(pipeline, bson.M{"$sort": buildSort(criteria.Sort)})

	if criteria.Skip != nil && *criteria.Skip > 0 {
		pipeline = append(pipeline, bson.M{"$skip": *criteria.Skip})
	}
	if criteria.Limit != nil && *criteria.Limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": *criteria.Limit})
	}

	pipeline = append(pipeline, bson.M{"$project": bson.M{
		"_id":              1,
		"status":           1,
		"statusWeight":     1,
		"origin":           1,
		"destination":      1,
		"distance":         1,
		"pickupDate":       1,
		"customerFullName": 1,
		"driverFullName":   1,
		"vehicleTypeId":    1,
		"vehicleName":      1,
		"billingId":        1,
		"billingState":     1,
		"createdAt":        1,
	}})

	return pipeline
}

func buildPrimaryMatch(criteria domain.ShipmentCriteria) bson.M {
	match := bson.M{}

	if criteria.ShipmentID != nil {
		match["_id"] = *criteria.ShipmentID
	}
	if criteria.CustomerID != nil {
		match["customerId"] = *criteria.CustomerID
	}
	if criteria.DriverID != nil {
		match["driverId"] = *criteria.DriverID
	}
	if criteria.VehicleTypeID != nil {
		match["vehicleTypeId"] = *criteria.VehicleTypeID
	}
	if criteria.BillingID != nil {
		match["billingId"] = *criteria.BillingID
	}
	if len(criteria.Statuses) > 0 {
		match["status"] = bson.M{"$in": criteria.Statuses}
	}
	if criteria.PickupFrom != nil || criteria.PickupTo != nil {
		pickupRange := bson.M{}
		if criteria.PickupFrom != nil {
			start, _ := sharedMongo.DayBounds(*criteria.PickupFrom)
			pickupRange["$gte"] = start
		}
		if criteria.PickupTo != nil {
			_, end := sharedMongo.DayBounds(*criteria.PickupTo)
			pickupRange["$lte"] = end
		}
		match["pickupDate"] = pickupRange
	}

	return match
}

// buildNameMatch compiles the name criteria into case-insensitive substring
// matches. Search terms are quoted so regex metacharacters match literally.
func buildNameMatch(criteria domain.ShipmentCriteria) bson.M {
	match := bson.M{}

	if criteria.CustomerName != nil {
		match["customerFullName"] = bson.M{"$regex": regexp.QuoteMeta(*criteria.CustomerName), "$options": "i"}
	}
	if criteria.DriverName != nil {
		match["driverFullName"] = bson.M{"$regex": regexp.QuoteMeta(*criteria.DriverName), "$options": "i"}
	}

	return match
}

// buildSort honors caller-supplied sort keys and otherwise falls back to the
// operational default: active work first by status rank, newest pickups
// first within a rank, _id as the deterministic tiebreak.
func buildSort(fields []domain.SortField) bson.D {
	if len(fields) > 0 {
		sort := make(bson.D, 0, len(fields)+1)
		for _, field := range fields {
			direction := -1
			if field.Ascending {
				direction = 1
			}
			sort = append(sort, bson.E{Key: field.Field, Value: direction})
		}
		sort = append(sort, bson.E{Key: "_id", Value: 1})
		return sort
	}

	return bson.D{
		{Key: "statusWeight", Value: 1},
		{Key: "pickupDate", Value: -1},
		{Key: "_id", Value: 1},
	}
}

// statusWeightExpr ranks statuses per domain.StatusWeight; statuses outside
// the table take domain.StatusWeightDefault so they always sort last.
func statusWeightExpr() bson.M {
	branches := make([]bson.M, 0, len(domain.StatusWeight))
	for _, status := range []domain.ShipmentStatus{
		domain.ShipmentStatusPending,
		domain.ShipmentStatusConfirmed,
		domain.ShipmentStatusInTransit,
		domain.ShipmentStatusDelivered,
		domain.ShipmentStatusCancelled,
	} {
		branches = append(branches, bson.M{
			"case": bson.M{"$eq": []interface{}{"$status", string(status)}},
			"then": domain.StatusWeight[status],
		})
	}

	return bson.M{"$switch": bson.M{
		"branches": branches,
		"default":  domain.StatusWeightDefault,
	}}
}

func fullNameExpr(docPath string) bson.M {
	return bson.M{"$trim": bson.M{"input": bson.M{"$concat": []interface{}{
		bson.M{"$ifNull": []interface{}{docPath + ".firstName", ""}},
		" ",
		bson.M{"$ifNull": []interface{}{docPath + ".lastName", ""}},
	}}}}
}
