package handlers

import (
	"database/sql"
	"net/http"
	"sort"

	"atrium-api/datatable"
	"atrium-api/policy"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

// reservedParams are query keys with pipeline meaning; everything else is
// treated as a filter value.
var reservedParams = map[string]bool{
	"search":   true,
	"sortBy":   true,
	"sortDir":  true,
	"page":     true,
	"perPage":  true,
	"pageSize": true,
}

// DatatablesHandler serves every registered table through one endpoint.
// The table definitions are built and validated at startup; a request
// only ever selects one by name and supplies its interaction state.
type DatatablesHandler struct {
	db          *sql.DB
	tables      map[string]*datatable.Table
	columnReg   *datatable.Registry
	filterReg   *datatable.Registry
	auth        *policy.Authorizer
	permissions map[string]string // table name -> required permission
}

func NewDatatablesHandler(
	db *sql.DB,
	tables map[string]*datatable.Table,
	columnReg, filterReg *datatable.Registry,
	auth *policy.Authorizer,
	permissions map[string]string,
) *DatatablesHandler {
	return &DatatablesHandler{
		db:          db,
		tables:      tables,
		columnReg:   columnReg,
		filterReg:   filterReg,
		auth:        auth,
		permissions: permissions,
	}
}

type columnMeta struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Sortable bool   `json:"sortable"`
}

type filterMeta struct {
	Key     string                   `json:"key"`
	Label   string                   `json:"label"`
	Type    string                   `json:"type"`
	Options []datatable.FilterOption `json:"options,omitempty"`
	Control string                   `json:"control"`
}

type renderedRow struct {
	ID    interface{}            `json:"id"`
	Cells map[string]string      `json:"cells"`
	Raw   map[string]interface{} `json:"raw"`
}

func (h *DatatablesHandler) Query(c *gin.Context) {
	name := c.Param("table")
	table, ok := h.tables[name]
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Unknown table"))
		return
	}
	if perm, ok := h.permissions[name]; ok {
		allowed, err := h.auth.Can(c.GetInt("userId"), perm)
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to this table"))
			return
		}
	}

	filters := map[string][]string{}
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] {
			continue
		}
		filters[key] = values
	}
	p := types.ParsePaginationParams(c)

	opts := datatable.Options{
		Table:   table,
		Filters: filters,
		Search:  c.Query("search"),
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
		Page:    p.Page,
		PerPage: p.PerPage,
	}

	rows, total, err := datatable.Run(h.db, opts)
	if err != nil {
		// Filter problems surface to the caller; sort problems never reach
		// here because unknown sort keys fall back to the primary key.
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	transformed := datatable.Transform(table, rows)

	rendered := make([]renderedRow, 0, len(transformed))
	for _, row := range transformed {
		cells := make(map[string]string, len(table.Columns()))
		for _, col := range table.Columns() {
			value := row[col.Key()]
			if value == nil {
				cells[col.Key()] = ""
				continue
			}
			frag, err := h.columnReg.Render(string(col.Type()), value, col.Options())
			if err != nil {
				c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
				return
			}
			cells[col.Key()] = frag
		}
		rendered = append(rendered, renderedRow{ID: row["_id"], Cells: cells, Raw: row})
	}

	columns := make([]columnMeta, 0, len(table.Columns()))
	for _, col := range table.Columns() {
		columns = append(columns, columnMeta{
			Key:      col.Key(),
			Label:    col.Label(),
			Type:     string(col.Type()),
			Sortable: col.IsSortable(),
		})
	}

	filterMetas := make([]filterMeta, 0, len(table.Filters()))
	for _, f := range table.Filters() {
		options, err := f.ResolveOptions()
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		control, err := h.filterReg.Render(string(f.Type()), options, map[string]string{"name": f.Key()})
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		filterMetas = append(filterMetas, filterMeta{
			Key:     f.Key(),
			Label:   f.Label(),
			Type:    string(f.Type()),
			Options: options,
			Control: control,
		})
	}

	totalPages := (total + p.PerPage - 1) / p.PerPage
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"table":   table.Name(),
		"columns": columns,
		"filters": filterMetas,
		"rows":    rendered,
		"pagination": types.PaginationMeta{
			Page:       p.Page,
			PerPage:    p.PerPage,
			Total:      total,
			TotalPages: totalPages,
		},
	}))
}

// ListTables enumerates the registered tables so clients can discover
// what the generic endpoint serves.
func (h *DatatablesHandler) ListTables(c *gin.Context) {
	names := make([]string, 0, len(h.tables))
	for name := range h.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"tables": names}))
}
