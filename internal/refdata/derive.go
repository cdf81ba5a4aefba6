package refdata

import (
	talib "github.com/markcheno/go-talib"
)

const deriveLookback = 20

// deriveMarketFields fills snapshot gaps from candle history: intraday
// volatility from the stddev of close-to-close returns and average trade
// size from an SMA of bar volume. Symbols with candles but no snapshot row
// get a synthetic snapshot whose only price reference is the last close.
func deriveMarketFields(market map[string]MarketSnapshot, candles map[string][]Candle) {
	for rawSym, series := range candles {
		sym := normalizeSymbol(rawSym)
		if sym == "" || len(series) == 0 {
			continue
		}
		snap, ok := market[sym]
		if !ok {
			snap = MarketSnapshot{Symbol: sym, LTP: series[len(series)-1].Close}
		}
		if snap.IntradayVol == 0 {
			snap.IntradayVol = intradayVolFromCloses(series)
		}
		if snap.LastTradeSize == 0 {
			snap.LastTradeSize = avgTradeSizeFromVolumes(series)
		}
		market[sym] = snap
	}
}

func intradayVolFromCloses(series []Candle) float64 {
	returns := make([]float64, 0, len(series))
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, series[i].Close/prev-1)
	}
	period := deriveLookback
	if len(returns) < period {
		period = len(returns)
	}
	if period < 2 {
		return 0
	}
	stddev := talib.StdDev(returns, period, 1)
	return stddev[len(stddev)-1]
}

func avgTradeSizeFromVolumes(series []Candle) float64 {
	volumes := make([]float64, len(series))
	for i, c := range series {
		volumes[i] = c.Volume
	}
	period := deriveLookback
	if len(volumes) < period {
		period = len(volumes)
	}
	if period < 2 {
		return volumes[len(volumes)-1]
	}
	sma := talib.Sma(volumes, period)
	return sma[len(sma)-1]
}
