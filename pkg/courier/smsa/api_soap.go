package smsa

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/wasel/courierhub/pkg/courier/transport"
)

// DefaultEndpoint is the production SECOM web service URL.
const DefaultEndpoint = "https://track.smsaexpress.com/SECOM/SMSAwebService.asmx"

// soapNamespace is the SECOM operation namespace. It doubles as the
// SOAPAction prefix.
const soapNamespace = "http://track.smsaexpress.com/secom/"

// SOAPAPIClient is the production implementation of APIClient using the
// SECOM SOAP service. Requests go through the resilient transport; the
// endpoint is passed as a fully-qualified URL so no base-URL join happens.
type SOAPAPIClient struct {
	endpoint string
	passKey  string
	http     *transport.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	Endpoint   string
	PassKey    string
	Timeout    time.Duration
	MaxRetries int
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &SOAPAPIClient{
		endpoint: endpoint,
		passKey:  cfg.PassKey,
		http: transport.New(transport.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Headers: map[string]string{
				"Content-Type": "text/xml; charset=utf-8",
			},
		}),
	}
}

// CreateShipment books a shipment via addShipPDF. The service replies with
// the assigned waybill number as plain result text; an empty or
// failure-flagged result is a business failure, not a transport error.
func (c *SOAPAPIClient) CreateShipment(ctx context.Context, params *CreateShipmentParams) (*CreateShipmentResult, error) {
	body, err := c.call(ctx, "addShipPDF", shipmentFields(c.passKey, params))
	if err != nil {
		return nil, err
	}

	result, ok := findElementText(body, "addShipPDFResult")
	if !ok || result == "" {
		return nil, &APIError{Code: "CREATE_FAILED", Description: "empty addShipPDF result"}
	}
	if strings.Contains(result, "Failed") {
		return nil, &APIError{Code: "CREATE_FAILED", Description: result}
	}

	return &CreateShipmentResult{AWB: result}, nil
}

// GetTracking fetches the scan history for a waybill. Rows are matched by
// element name since the reply nests them inside a diffgram data set whose
// namespace prefixes vary.
func (c *SOAPAPIClient) GetTracking(ctx context.Context, awb string) (*TrackingResult, error) {
	fields := []envelopeField{
		{Name: "awbNo", Value: escapeXML(awb)},
		{Name: "passKey", Value: escapeXML(c.passKey)},
	}

	body, err := c.call(ctx, "getTrackingParams", fields)
	if err != nil {
		return nil, err
	}

	return &TrackingResult{AWB: awb, Rows: parseTrackingRows(body)}, nil
}

// CancelShipment voids an undelivered shipment. The outcome is encoded in
// the result text; callers check for the service's success marker.
func (c *SOAPAPIClient) CancelShipment(ctx context.Context, awb, reason string) (*CancelResult, error) {
	fields := []envelopeField{
		{Name: "awbNo", Value: escapeXML(awb)},
		{Name: "passKey", Value: escapeXML(c.passKey)},
		{Name: "reas", Value: escapeXML(reason)},
	}

	body, err := c.call(ctx, "cancelShipment", fields)
	if err != nil {
		return nil, err
	}

	result, ok := findElementText(body, "cancelShipmentResult")
	if !ok {
		result = "Failed"
	}

	return &CancelResult{Result: result}, nil
}

// ============================================================================
// SOAP Envelope Construction
// ============================================================================

// envelopeField is one operation parameter. Values must already be
// XML-escaped.
type envelopeField struct {
	Name  string
	Value string
}

const soapEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns="{{.Namespace}}">
  <soap:Header/>
  <soap:Body>
    <ns:{{.Operation}}>
{{- range .Fields}}
      <ns:{{.Name}}>{{.Value}}</ns:{{.Name}}>
{{- end}}
    </ns:{{.Operation}}>
  </soap:Body>
</soap:Envelope>`

var envelopeTmpl = template.Must(template.New("envelope").Parse(soapEnvelopeTemplate))

func buildEnvelope(operation string, fields []envelopeField) ([]byte, error) {
	data := struct {
		Namespace string
		Operation string
		Fields    []envelopeField
	}{
		Namespace: soapNamespace,
		Operation: operation,
		Fields:    fields,
	}

	var buf bytes.Buffer
	if err := envelopeTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// shipmentFields flattens addShipPDF parameters into the element order the
// service expects. The "c" block is the shipper side, the "s" block the
// consignee side; both follow the SECOM integration guide names, including
// the guide's inrCurr spelling.
func shipmentFields(passKey string, params *CreateShipmentParams) []envelopeField {
	pieces := params.Pieces
	if pieces <= 0 {
		pieces = 1
	}

	return []envelopeField{
		{Name: "passKey", Value: escapeXML(passKey)},
		{Name: "refNo", Value: escapeXML(params.RefNo)},
		{Name: "sentDate", Value: escapeXML(params.SentDate)},
		{Name: "idNo", Value: escapeXML(params.IDNumber)},
		{Name: "cName", Value: escapeXML(params.Sender.Name)},
		{Name: "cntry", Value: escapeXML(params.Sender.Country)},
		{Name: "cCity", Value: escapeXML(params.Sender.City)},
		{Name: "cZip", Value: escapeXML(params.Sender.PostalCode)},
		{Name: "cPOBox", Value: escapeXML(params.Sender.POBox)},
		{Name: "cMobile", Value: escapeXML(params.Sender.Mobile)},
		{Name: "cTel1", Value: escapeXML(params.Sender.Tel1)},
		{Name: "cTel2", Value: escapeXML(params.Sender.Tel2)},
		{Name: "cAddr1", Value: escapeXML(params.Sender.AddressLine1)},
		{Name: "cAddr2", Value: escapeXML(params.Sender.AddressLine2)},
		{Name: "shipType", Value: escapeXML(params.ShipType)},
		{Name: "PCs", Value: strconv.Itoa(pieces)},
		{Name: "cEmail", Value: escapeXML(params.Sender.Email)},
		{Name: "cCarrValue", Value: ""},
		{Name: "cCarrCurr", Value: ""},
		{Name: "codAmt", Value: formatAmount(params.CODAmount)},
		{Name: "weight", Value: formatAmount(params.Weight)},
		{Name: "custVal", Value: formatAmount(params.DeclaredValue)},
		{Name: "custCurr", Value: escapeXML(params.DeclaredCurrency)},
		{Name: "insrAmt", Value: formatAmount(params.InsuranceAmount)},
		{Name: "inrCurr", Value: escapeXML(params.InsuranceCurrency)},
		{Name: "itemDesc", Value: escapeXML(params.Description)},
		{Name: "sName", Value: escapeXML(params.Recipient.Name)},
		{Name: "sCntry", Value: escapeXML(params.Recipient.Country)},
		{Name: "sCity", Value: escapeXML(params.Recipient.City)},
		{Name: "sZip", Value: escapeXML(params.Recipient.PostalCode)},
		{Name: "sPOBox", Value: escapeXML(params.Recipient.POBox)},
		{Name: "sMobile", Value: escapeXML(params.Recipient.Mobile)},
		{Name: "sTel1", Value: escapeXML(params.Recipient.Tel1)},
		{Name: "sTel2", Value: escapeXML(params.Recipient.Tel2)},
		{Name: "sAddr1", Value: escapeXML(params.Recipient.AddressLine1)},
		{Name: "sAddr2", Value: escapeXML(params.Recipient.AddressLine2)},
		{Name: "sEmail", Value: escapeXML(params.Recipient.Email)},
	}
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ============================================================================
// SOAP Call and Response Parsing
// ============================================================================

func (c *SOAPAPIClient) call(ctx context.Context, operation string, fields []envelopeField) ([]byte, error) {
	envelope, err := buildEnvelope(operation, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s envelope: %w", operation, err)
	}

	resp, err := c.http.Post(ctx, c.endpoint, envelope, map[string]string{
		"SOAPAction": soapNamespace + operation,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseSOAPError(resp)
	}
	if fault, ok := findElementText(resp.Body, "faultstring"); ok && fault != "" {
		return nil, &APIError{Code: "SOAP_FAULT", Description: fault}
	}

	return resp.Body, nil
}

func parseSOAPError(resp *transport.Response) error {
	if fault, ok := findElementText(resp.Body, "faultstring"); ok && fault != "" {
		return &APIError{Code: "SOAP_FAULT", Description: fault}
	}
	return &APIError{
		Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Description: string(resp.Body),
	}
}

// findElementText locates the first element whose local name ends with
// suffix and returns its flattened text content. Matching by suffix keeps
// the parser independent of whatever namespace prefixes the service emits.
func findElementText(data []byte, suffix string) (string, bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	var buf strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
				continue
			}
			if strings.HasSuffix(t.Name.Local, suffix) {
				depth = 1
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
				if depth == 0 {
					return strings.TrimSpace(buf.String()), true
				}
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(t)
			}
		}
	}
}

type trackingRowXML struct {
	AWB      string `xml:"awbNo"`
	Date     string `xml:"Date"`
	Activity string `xml:"Activity"`
	Details  string `xml:"Details"`
	Location string `xml:"Location"`
}

// parseTrackingRows collects every Tracking row in the reply's data set.
// A reply without rows yields an empty slice, which callers treat as a
// degraded but successful tracking response.
func parseTrackingRows(data []byte) []TrackingRow {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var rows []TrackingRow

	for {
		tok, err := dec.Token()
		if err != nil {
			return rows
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Tracking" {
			continue
		}

		var row trackingRowXML
		if err := dec.DecodeElement(&row, &se); err != nil {
			continue
		}
		rows = append(rows, TrackingRow{
			Date:     row.Date,
			Activity: row.Activity,
			Details:  row.Details,
			Location: row.Location,
		})
	}
}

var _ APIClient = (*SOAPAPIClient)(nil)
