package postalcode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/menucheckout/lib/myhttpclient"
)

type viaCEPResponse struct {
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       any    `json:"erro"`
}

// the service answers both {"erro": true} and {"erro": "true"}
func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

type viaCEPClient struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
}

func NewViaCEPClient(baseURL string, httpClient myhttpclient.HTTPSender) Lookup {
	return &viaCEPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (l *viaCEPClient) Lookup(c context.Context, postalCode string) (Address, bool, error) {
	digits, err := Normalize(postalCode)
	if err != nil {
		return Address{}, false, err
	}

	status, body, err := l.httpClient.Send(c, http.MethodGet, fmt.Sprintf("%s/%s/json", l.baseURL, digits), nil)
	if err != nil {
		return Address{}, false, fmt.Errorf("error looking up postal code %s: %w", digits, err)
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return Address{}, false, nil
	}
	if status != http.StatusOK {
		return Address{}, false, fmt.Errorf("error looking up postal code %s: http-status %d", digits, status)
	}

	resp := viaCEPResponse{}
	err = json.Unmarshal(body, &resp)
	if err != nil {
		return Address{}, false, fmt.Errorf("error parsing postal code response: %s", err)
	}
	if resp.notFound() {
		return Address{}, false, nil
	}

	return Address{
		Street:       resp.Logradouro,
		Neighborhood: resp.Bairro,
		City:         resp.Localidade,
		State:        resp.UF,
	}, true, nil
}
