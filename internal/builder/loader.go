package builder

import (
	"revenue-dashboard/internal/cache"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

// LoadedWorkbook is the set of sheets picked from one input, one per role
type LoadedWorkbook struct {
	Source   parsers.Source
	Identity parsers.Identity
	Sheets   []string
	// Roles maps each role to the sheet the rule table picked for it
	Roles  map[parsers.SheetRole]string
	Tables map[parsers.SheetRole]*models.RawTable
	// Cached is true when nothing had to be parsed
	Cached bool
}

// Sheet returns the sheet picked for role
func (w *LoadedWorkbook) Sheet(role parsers.SheetRole) string {
	if w == nil {
		return ""
	}
	return w.Roles[role]
}

// Table returns the table loaded for role, or nil
func (w *LoadedWorkbook) Table(role parsers.SheetRole) *models.RawTable {
	if w == nil {
		return nil
	}
	return w.Tables[role]
}

// Loader reads workbooks through an optional table cache
type Loader struct {
	tables *cache.TableCache
	config *parsers.ReadConfig
	logger logger.Logger
}

// NewLoader creates a loader. A nil cache disables caching; a nil config
// uses the default read configuration.
func NewLoader(tables *cache.TableCache, config *parsers.ReadConfig) *Loader {
	if config == nil {
		config = parsers.DefaultReadConfig()
	}
	return &Loader{
		tables: tables,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("loader"),
	}
}

// Load picks one sheet per rule and reads it. The workbook is opened only
// when the sheet list or a table is not already cached for the source's
// current identity.
func (l *Loader) Load(src parsers.Source, rules []parsers.SheetRule) (*LoadedWorkbook, error) {
	id, err := src.Identify()
	if err != nil {
		return nil, err
	}
	l.tables.Observe(id)

	log := l.logger.WithField("source", src.Label())
	var wb parsers.Workbook
	open := func() (parsers.Workbook, error) {
		if wb != nil {
			return wb, nil
		}
		opened, err := parsers.OpenWorkbook(src, l.config)
		if err != nil {
			return nil, err
		}
		wb = opened
		return wb, nil
	}
	defer func() {
		if wb != nil {
			if err := wb.Close(); err != nil {
				log.WithError(err).Warn("Failed to close workbook")
			}
		}
	}()

	sheets, ok := l.tables.Sheets(id)
	if !ok {
		w, err := open()
		if err != nil {
			return nil, err
		}
		sheets = w.SheetNames()
		l.tables.PutSheets(id, sheets)
	}
	if len(sheets) == 0 {
		return nil, errors.InputError(errors.CodeSheetNotFound, src.Label(), nil)
	}

	loaded := &LoadedWorkbook{
		Source:   src,
		Identity: id,
		Sheets:   sheets,
		Roles:    make(map[parsers.SheetRole]string, len(rules)),
		Tables:   make(map[parsers.SheetRole]*models.RawTable, len(rules)),
	}

	read := make(map[string]*models.RawTable)
	for _, rule := range rules {
		sheet, ok := rule.Select(sheets)
		if !ok {
			return nil, errors.InputError(errors.CodeSheetNotFound, src.Label(), nil).
				WithContext("role", string(rule.Role)).
				WithContext("rule", rule.Describe())
		}

		table, ok := read[sheet]
		if !ok {
			table, ok = l.tables.Table(id, sheet)
		}
		if !ok {
			w, err := open()
			if err != nil {
				return nil, err
			}
			table, err = w.ReadSheet(sheet)
			if err != nil {
				return nil, err
			}
			l.tables.PutTable(id, sheet, table)
		}
		read[sheet] = table

		loaded.Roles[rule.Role] = sheet
		loaded.Tables[rule.Role] = table
		log.WithFields(logger.Fields{
			"role":  rule.Role,
			"sheet": sheet,
			"rows":  table.Len(),
		}).Debug("Selected sheet")
	}

	loaded.Cached = wb == nil
	return loaded, nil
}
