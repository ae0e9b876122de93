package taxhttp

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/platform/httpx"
	"github.com/iamxdv30/TheOmnitool-sub000/internal/tax"
)

// Calculator is the calculation contract used by the handler.
type Calculator interface {
	Calculate(ctx context.Context, in tax.CartInput) (tax.Result, error)
}

// Handler exposes the tax engine over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   Calculator
	provinces *tax.ProvinceTable
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service Calculator, provinces *tax.ProvinceTable) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		logger:    logger,
		service:   service,
		provinces: provinces,
		validator: v,
	}
}

func (h *Handler) listProvinces(w http.ResponseWriter, r *http.Request) {
	all := h.provinces.All()
	out := make([]provinceResponse, 0, len(all))
	for _, p := range all {
		resp := provinceResponse{Code: p.Code, Name: p.Name, Taxes: make([]taxTypeResponse, 0, len(p.Taxes))}
		for _, t := range p.Taxes {
			resp.Taxes = append(resp.Taxes, taxTypeResponse{Name: t.Name, Rate: t.Rate})
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"provinces": out})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	kind, err := tax.ParseKind(chi.URLParam(r, "jurisdiction"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
		return
	}

	req, err := h.decode(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields := h.validate(kind, req); len(fields) > 0 {
		httpx.ValidationProblem(w, fields)
		return
	}

	in, err := req.CartInput(kind, h.provinces)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.Calculate(r.Context(), in)
	if err != nil {
		h.logger.Info("tax calculation rejected", slog.String("jurisdiction", kind.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CalculateRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json", "":
		var req CalculateRequest
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			return CalculateRequest{}, err
		}
		return req, nil
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes)
		return parseForm(r)
	default:
		return CalculateRequest{}, fmt.Errorf("%w: %s", httpx.ErrUnsupported, mediaType)
	}
}

func (h *Handler) validate(kind tax.Kind, req CalculateRequest) map[string]string {
	fields := map[string]string{}
	if err := h.validator.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fieldPath(fe.Namespace())] = reason(fe)
			}
		} else {
			fields["request"] = err.Error()
		}
	}
	switch kind {
	case tax.KindCanada:
		if err := h.validator.Var(req.Province, "required,len=2,alpha"); err != nil {
			fields["province"] = "is required as a two-letter code"
		}
	case tax.KindVAT:
		if req.VATRate == nil {
			fields["vat_rate"] = "is required"
		}
	}
	return fields
}

var namespaceIndex = regexp.MustCompile(`\[(\d+)\]`)

// fieldPath drops the struct name from a validator namespace and renumbers
// slice indexes from 1, so "CalculateRequest.items[0].price" becomes
// "items[1].price" like the cart's own field names.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return namespaceIndex.ReplaceAllStringFunc(namespace, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil {
			return m
		}
		return "[" + strconv.Itoa(n+1) + "]"
	})
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "must contain at most " + fe.Param() + " entries"
	case "gte":
		return "must be at least " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "alpha":
		return "must contain letters only"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
