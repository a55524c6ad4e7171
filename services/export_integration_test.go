//go:build integration

package services

var RunBulkJob = runBulkJob
