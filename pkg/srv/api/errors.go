/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package api

import (
	"errors"
	"net/http"

	"jinr.ru/greenlab/go-stemlab/pkg/module"
	"jinr.ru/greenlab/go-stemlab/pkg/register"
	"jinr.ru/greenlab/go-stemlab/pkg/transport"
)

// ErrBadRequest is returned for a request body that can not be decoded
type ErrBadRequest struct {
	What string
}

func (e ErrBadRequest) Error() string {
	return "Bad request: " + e.What
}

// statusOf maps an error to the HTTP status of the response
func statusOf(err error) int {
	var (
		notFound    module.ErrPathNotFound
		invalid     register.ErrInvalidValue
		unknown     register.ErrUnknownEncoding
		access      register.ErrAccessMode
		badRequest  ErrBadRequest
		addrRange   transport.ErrAddressRange
		timeout     transport.ErrTransportTimeout
		transportEr transport.ErrTransport
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &unknown), errors.As(err, &access),
		errors.As(err, &badRequest), errors.As(err, &addrRange):
		return http.StatusBadRequest
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportEr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
