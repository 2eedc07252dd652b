package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/config"

	"github.com/beevik/etree"
)

// CurrencyClient FloatRates 汇率 XML 接口
type CurrencyClient struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewCurrencyClient 创建汇率客户端
func NewCurrencyClient(cfg config.ProviderConfig) *CurrencyClient {
	return &CurrencyClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout()},
		now:     time.Now,
	}
}

// Rates 获取以 base 计价的全部汇率，如 {base}/pkr.xml
func (c *CurrencyClient) Rates(ctx context.Context, base string) ([]ExchangeRate, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, fmt.Errorf("基础货币不能为空")
	}
	url := fmt.Sprintf("%s/%s.xml", c.baseURL, strings.ToLower(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	body, err := doRequest(c.client, req)
	if err != nil {
		return nil, err
	}
	return parseRatesXML(body, base, c.now())
}

// parseRatesXML 解析 <channel><item>... 结构，缺少汇率或无法解析的条目跳过
func parseRatesXML(body []byte, base string, now time.Time) ([]ExchangeRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("解析汇率 XML 失败: %w", err)
	}

	items := doc.FindElements("//item")
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: 汇率数据为空", ErrProviderUnavailable)
	}

	rates := make([]ExchangeRate, 0, len(items))
	for _, item := range items {
		target := elementText(item, "targetCurrency")
		rateText := strings.ReplaceAll(elementText(item, "exchangeRate"), ",", "")
		if target == "" || rateText == "" {
			continue
		}
		rate, err := strconv.ParseFloat(rateText, 64)
		if err != nil || rate <= 0 {
			continue
		}

		itemBase := strings.ToUpper(elementText(item, "baseCurrency"))
		if itemBase == "" {
			itemBase = base
		}
		date := now
		if pub := elementText(item, "pubDate"); pub != "" {
			if t, err := time.Parse(time.RFC1123, pub); err == nil {
				date = t
			}
		}
		rates = append(rates, ExchangeRate{
			Base:   itemBase,
			Target: strings.ToUpper(target),
			Rate:   rate,
			Date:   dateOnly(date),
		})
	}
	return rates, nil
}

func elementText(parent *etree.Element, tag string) string {
	el := parent.SelectElement(tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
