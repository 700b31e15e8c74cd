package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/usecase"
	"marketdata_backend/internal/platform/externalapi/twelvedata/dto"
)

// 日時付き・日付のみの2形式が混在して返ってくる
const (
	datetimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// TwelveDataMarket はTwelve Data外部APIから株価データを取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client}
}

// GetTimeSeries はTwelve Data APIから指定範囲の時系列株価データを取得し、
// entity.Candleのスライスとして返します。startがゼロ値の場合は範囲指定を省略し、
// outputsizeだけで制限します。ネットワーク・レートリミット・不正レスポンスは
// すべて呼び出し側で「取得失敗」として扱われる一過性エラーです。
func (t *TwelveDataMarket) GetTimeSeries(ctx context.Context, symbol string, iv entity.Interval, start, end time.Time, outputsize int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", iv.SourceCode())
	q.Set("outputsize", strconv.Itoa(outputsize))
	if !start.IsZero() {
		q.Set("start_date", start.UTC().Format(datetimeLayout))
	}
	if !end.IsZero() {
		q.Set("end_date", end.UTC().Format(datetimeLayout))
	}
	q.Set("apikey", t.cfg.TwelveDataAPIKey)

	u := fmt.Sprintf("%s/time_series?%s", t.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("twelvedata http %d", res.StatusCode)
	}

	// JSONレスポンスをDTOにデコード
	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %s", body.Message)
	}

	candles := make([]entity.Candle, 0, len(body.Values))
	for _, v := range body.Values {
		c, err := parseValue(v)
		if err != nil {
			// 1行のパース失敗でバッチ全体を落とさない。行ごとにスキップしてログに残す
			slog.Warn("skipped unparsable sample", "symbol", symbol, "interval", iv, "datetime", v.Datetime, "error", err)
			continue
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// parseValue は文字列フィールドで返ってくる1サンプルを数値化します。
func parseValue(v dto.TimeSeriesValue) (entity.Candle, error) {
	tm, err := time.Parse(datetimeLayout, v.Datetime)
	if err != nil {
		tm, err = time.Parse(dateLayout, v.Datetime)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse time %q: %w", v.Datetime, err)
		}
	}
	o, err := strconv.ParseFloat(v.Open, 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse open %q: %w", v.Open, err)
	}
	h, err := strconv.ParseFloat(v.High, 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse high %q: %w", v.High, err)
	}
	l, err := strconv.ParseFloat(v.Low, 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse low %q: %w", v.Low, err)
	}
	c, err := strconv.ParseFloat(v.Close, 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse close %q: %w", v.Close, err)
	}

	// 出来高は欠けていることがあるため0をデフォルトにする
	var vol int64
	if v.Volume != "" {
		vol, err = strconv.ParseInt(v.Volume, 10, 64)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
	}

	return entity.Candle{
		Time:   tm,
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: vol,
	}, nil
}
