// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"bufio"
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
)

// DataRepository encapsulates I/O operations.
type DataRepository struct {
	DB         *sql.DB
	Mock       sqlmock.Sqlmock
	Writer     *bufio.Writer
	mockWriter *MockWriter
}

// CreateDataRepository factory method for the DataRepository.
// Queries are matched verbatim and in order.
func CreateDataRepository() *DataRepository {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	checkErr(err)
	mock.MatchExpectationsInOrder(true)

	mockWriter := &MockWriter{}
	writerAdapter := bufio.NewWriter(mockWriter)
	return &DataRepository{DB: db, Mock: mock, Writer: writerAdapter, mockWriter: mockWriter}
}

// ExpectWithRecords adds rows to repository, which can then be retrieved by the tested function.
func (repo *DataRepository) ExpectWithRecords(stm string, rows *sqlmock.Rows, args ...driver.Value) {
	expectation := repo.Mock.ExpectQuery(stm)
	if len(args) > 0 {
		expectation = expectation.WithArgs(args...)
	}
	expectation.WillReturnRows(rows).RowsWillBeClosed()
}

// ExpectError makes the given statement fail with err
func (repo *DataRepository) ExpectError(stm string, err error, args ...driver.Value) {
	expectation := repo.Mock.ExpectQuery(stm)
	if len(args) > 0 {
		expectation = expectation.WithArgs(args...)
	}
	expectation.WillReturnError(err)
}

// ExpectationsWereMet checks whether all queued expectations
// were met in order. If any of them was not met - an error is returned.
func (repo *DataRepository) ExpectationsWereMet() error {
	return repo.Mock.ExpectationsWereMet()
}

// GetWriterBuffer flushes the writer and returns every chunk written so far
func (repo *DataRepository) GetWriterBuffer() []string {
	err := repo.Writer.Flush()
	checkErr(err)
	return repo.mockWriter.data
}

// GetWrittenText flushes the writer and returns everything written as a single string
func (repo *DataRepository) GetWrittenText() string {
	return strings.Join(repo.GetWriterBuffer(), "")
}

// MockWriter allows to create a mock bufferWriter object, as it implements the interface
type MockWriter struct {
	data []string
}

func (mr *MockWriter) Write(p []byte) (n int, err error) {
	mr.data = append(mr.data, string(p))
	return len(p), nil
}

func (mr *MockWriter) GetData() []string {
	return mr.data
}

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
