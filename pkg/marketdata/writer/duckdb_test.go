package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "no_init.parquet"))

	err := writer.Write(types.MarketData{Symbol: "ALAB", Time: time.Now()})
	suite.ErrorContains(err, "not initialized")

	_, err = writer.Finalize()
	suite.Error(err)
	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestRoundTripOrderedAndDeduplicated() {
	outputPath := filepath.Join(suite.tempDir, "bars.parquet")
	writer := NewDuckDBWriter(outputPath)
	suite.Require().NoError(writer.Initialize())

	base := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := []types.MarketData{
		{Symbol: "ALAB", Time: base.AddDate(0, 0, 7), Open: 1, High: 2, Low: 1, Close: 2, Volume: 10},
		{Symbol: "ALAB", Time: base, Open: 1, High: 2, Low: 1, Close: 1, Volume: 10},
		// replaces the first row
		{Symbol: "ALAB", Time: base.AddDate(0, 0, 7), Open: 1, High: 3, Low: 1, Close: 3, Volume: 10},
	}

	for _, row := range rows {
		suite.Require().NoError(writer.Write(row))
	}

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)
	suite.Equal(3, writer.(*DuckDBWriter).Written())
	suite.Require().NoError(writer.Close())

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	result, err := db.Query(fmt.Sprintf("SELECT close FROM read_parquet('%s')", outputPath))
	suite.Require().NoError(err)
	defer result.Close()

	var closes []float64
	for result.Next() {
		var c float64
		suite.Require().NoError(result.Scan(&c))
		closes = append(closes, c)
	}

	suite.Equal([]float64{1, 3}, closes)
}
