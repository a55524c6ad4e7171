package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	apperrors "catalog-service/common/errors"
	awspkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MsgInvalidID is returned for malformed path ids.
const MsgInvalidID = "Invalid ID format"

// ParseID parses a hex ObjectID path parameter.
func ParseID(s string) (primitive.ObjectID, *apperrors.Error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation(MsgInvalidID)
	}
	return id, nil
}

// literalRegex matches s as a case-insensitive substring.
func literalRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// nameSearch builds the name filter shared by the named-entity listings.
func nameSearch(search string) bson.M {
	filter := bson.M{}
	if s := strings.TrimSpace(search); s != "" {
		filter["name"] = literalRegex(s)
	}
	return filter
}

// sortDirection maps asc|desc onto 1|-1. Anything but desc is ascending.
func sortDirection(order string) int {
	if strings.EqualFold(strings.TrimSpace(order), "desc") {
		return -1
	}
	return 1
}

// listSort resolves sortBy against a closed key set, falling back to name.
func listSort(filter ListFilter, allowed map[string]string) bson.D {
	field, ok := allowed[strings.TrimSpace(filter.SortBy)]
	if !ok {
		field = "name"
	}
	return bson.D{{Key: field, Value: sortDirection(filter.SortOrder)}}
}

// storeError classifies a repository error. dupMsg names the conflicting
// field on a unique-index violation.
func storeError(err error, notFoundMsg, dupMsg string) *apperrors.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(notFoundMsg)
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperrors.Duplicate(dupMsg, err)
	default:
		return apperrors.Internal(err)
	}
}

// recordMetric sends a counter without blocking the request.
func recordMetric(metrics *awspkg.MetricsClient, name string, n int) {
	if !metrics.IsEnabled() || n <= 0 {
		return
	}
	go func() {
		_ = metrics.RecordValue(context.Background(), name, float64(n), nil)
	}()
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
