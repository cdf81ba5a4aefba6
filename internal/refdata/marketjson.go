package refdata

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// Market snapshots arrive as JSON dumps from upstream feeds that sometimes
// quote numeric fields, so the loader validates shape with a schema and then
// reads values tolerantly via gjson.
const marketSchemaJSON = `{
  "type": "object",
  "required": ["snapshots"],
  "properties": {
    "snapshots": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["symbol"],
        "properties": {
          "symbol": {"type": "string", "minLength": 1},
          "spread": {"type": ["number", "string"]},
          "intraday_vol": {"type": ["number", "string"]},
          "last_trade_size": {"type": ["number", "string"]},
          "bid": {"type": ["number", "string"]},
          "ask": {"type": ["number", "string"]},
          "ltp": {"type": ["number", "string"]}
        }
      }
    }
  }
}`

var marketSchema = jsonschema.MustCompileString("market.json", marketSchemaJSON)

func loadMarketSnapshots(path string) ([]MarketSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read market snapshot file failed (%s): %w", path, err)
	}
	return parseMarketSnapshots(string(raw), path)
}

func parseMarketSnapshots(raw, source string) ([]MarketSnapshot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("market snapshot file is not valid JSON (%s)", source)
	}
	if err := marketSchema.Validate(gjson.Parse(raw).Value()); err != nil {
		return nil, fmt.Errorf("market snapshot schema validation failed (%s): %w", source, err)
	}
	var out []MarketSnapshot
	gjson.Get(raw, "snapshots").ForEach(func(_, row gjson.Result) bool {
		sym := normalizeSymbol(row.Get("symbol").String())
		if sym == "" {
			return true
		}
		out = append(out, MarketSnapshot{
			Symbol:        sym,
			Spread:        numericField(row, "spread"),
			IntradayVol:   numericField(row, "intraday_vol"),
			LastTradeSize: numericField(row, "last_trade_size"),
			Bid:           numericField(row, "bid"),
			Ask:           numericField(row, "ask"),
			LTP:           numericField(row, "ltp"),
		})
		return true
	})
	return out, nil
}

// numericField reads a number that upstream may have encoded as a string.
func numericField(row gjson.Result, key string) float64 {
	v := row.Get(key)
	if !v.Exists() {
		return 0
	}
	return v.Float()
}
