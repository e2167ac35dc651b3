package mock

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/datarhei/jsondir/encoding/json"
	"github.com/datarhei/jsondir/http/api"
	"github.com/datarhei/jsondir/http/errorhandler"

	"github.com/invopop/jsonschema"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func DummyEcho() *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	router.Logger.SetOutput(io.Discard)

	return router
}

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Header  http.Header
	Raw     []byte
	Data    interface{}
}

func Request(t require.TestingT, httpstatus int, router http.Handler, method, path string, data io.Reader) *Response {
	return RequestWithHeader(t, httpstatus, router, method, path, nil, data)
}

func RequestWithHeader(t require.TestingT, httpstatus int, router http.Handler, method, path string, header http.Header, data io.Reader) *Response {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, data)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	router.ServeHTTP(w, req)

	response := CheckResponse(t, w.Result())

	require.Equal(t, httpstatus, w.Code, string(response.Raw))

	return response
}

func CheckResponse(t require.TestingT, res *http.Response) *Response {
	response := &Response{
		Code:   res.StatusCode,
		Header: res.Header,
	}

	body, err := io.ReadAll(res.Body)
	require.Equal(t, nil, err)

	res.Body.Close()

	response.Raw = body

	if strings.Contains(res.Header.Get("Content-Type"), "application/json") && len(body) != 0 {
		err := json.Unmarshal(body, &response.Data)
		require.Equal(t, nil, err)
	} else {
		response.Data = body
	}

	if response.Code >= 400 {
		e := api.Error{}
		if err := json.Unmarshal(body, &e); err == nil {
			response.Message = e.Message
		}
	}

	return response
}

func Validate(t require.TestingT, datatype, data interface{}) bool {
	schema, err := jsonschema.Reflect(datatype).MarshalJSON()
	require.NoError(t, err)

	schemaLoader := gojsonschema.NewStringLoader(string(schema))
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	require.Equal(t, nil, err)
	require.Equal(t, true, result.Valid(), result.Errors())

	return true
}
