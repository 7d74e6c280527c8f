package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"Gascalc/internal/calc/gas"

	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ExtinctionNone  = "none"
	ExtinctionIG55  = "ig55"
	ExtinctionHifog = "hifog"
)

type Input struct {
	Project        string             `json:"project"`
	Author         string             `json:"author"`
	Title          string             `json:"title"`
	Notes          string             `json:"notes"`
	ExtinctionType string             `json:"extinction_type"` // none, ig55 or hifog
	Room           gas.RoomDimensions `json:"room"`
}

type labels struct {
	title, generated, reference, project, author string

	characteristics, zone, value string

	dimensions, volume, floorVoid, ambient, ceiling string

	temperature, agents, agent, concentration, mass string

	inventory, item, quantity, system, none string

	ig55, hifog, cylinders, nozzles, tank, notes string

	warning string
}

var catalog = map[language.Tag]labels{
	language.French: {
		title: "Rapport Technique", generated: "Généré le", reference: "Référence",
		project: "Projet", author: "Auteur",
		characteristics: "1. Caractéristiques", zone: "Zone", value: "Valeur",
		dimensions: "Dimensions", volume: "Volume Total", floorVoid: "Hauteur Faux-Plancher",
		ambient: "Hauteur Ambiance", ceiling: "Hauteur Faux-Plafond", temperature: "Température",
		agents: "2. Agents extincteurs", agent: "Agent", concentration: "Concentration", mass: "Masse",
		inventory: "3. Système d'extinction", item: "Élément", quantity: "Quantité / Détails",
		system: "Système Extinction", none: "Aucun",
		ig55: "IG55 (Gaz Inerte)", hifog: "Hi-Fog (Brouillard d'Eau)",
		cylinders: "Bouteilles (80L/300bar)", nozzles: "Buses", tank: "Réservoir min.",
		notes: "Notes", warning: "Avertissement",
	},
	language.English: {
		title: "Technical Report", generated: "Generated on", reference: "Reference",
		project: "Project", author: "Author",
		characteristics: "1. Characteristics", zone: "Zone", value: "Value",
		dimensions: "Dimensions", volume: "Total Volume", floorVoid: "Raised Floor Height",
		ambient: "Ambient Height", ceiling: "Suspended Ceiling Height", temperature: "Temperature",
		agents: "2. Clean Agents", agent: "Agent", concentration: "Concentration", mass: "Mass",
		inventory: "3. Extinction System", item: "Item", quantity: "Quantity / Details",
		system: "Extinction System", none: "None",
		ig55: "IG55 (Inert Gas)", hifog: "Hi-Fog (Water Mist)",
		cylinders: "Cylinders (80L/300bar)", nozzles: "Nozzles", tank: "Minimum tank",
		notes: "Notes", warning: "Warning",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.French, language.English})

// Match picks the closest supported report language for the given tags.
func Match(tags ...language.Tag) language.Tag {
	tag, _, _ := matcher.Match(tags...)
	base, _ := tag.Base()
	if base.String() == "en" {
		return language.English
	}
	return language.French
}

// Document is the content of one report, ready to be rendered.
type Document struct {
	ID        string
	Generated time.Time
	Lang      language.Tag
	Input     Input
	Result    gas.GasCalculationResult
}

// Build renders the document into a single A4 page.
func Build(doc Document) (*gofpdf.Fpdf, error) {
	l, ok := catalog[doc.Lang]
	if !ok {
		l = catalog[language.French]
	}
	p := message.NewPrinter(doc.Lang)
	num := func(format string, a ...any) string {
		// gofpdf core fonts are cp1252; CLDR group separators are not.
		s := p.Sprintf(format, a...)
		return strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
	}

	in := doc.Input
	title := in.Title
	if title == "" {
		title = l.title
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(in.Author, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(40, 40, 40)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%s %s  |  %s: %s", l.generated, doc.Generated.Format("2006-01-02"), l.reference, doc.ID)))
	pdf.Ln(6)
	if in.Project != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %s", l.project, in.Project)))
		pdf.Ln(6)
	}
	if in.Author != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %s", l.author, in.Author)))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	room := in.Room
	res := doc.Result
	section(pdf, tr(l.characteristics))
	table(pdf, tr, []string{l.zone, l.value}, [][]string{
		{l.dimensions, num("%.2fm x %.2fm", room.Length, room.Width)},
		{l.volume, num("%.2f m³", res.VolumeTotal)},
		{l.floorVoid, num("%.2fm", room.HeightFloorVoid)},
		{l.ambient, num("%.2fm", room.HeightAmbient)},
		{l.ceiling, num("%.2fm", room.HeightCeilingVoid)},
		{l.temperature, num("%.1f °C", room.Temperature)},
	})

	names := make([]string, 0, len(res.AgentDetails))
	for name := range res.AgentDetails {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		d := res.AgentDetails[name]
		rows = append(rows, []string{name, num("%v %%", d.ConcentrationDesign), num("%.2f kg", d.MassKg)})
	}
	section(pdf, tr(l.agents))
	table(pdf, tr, []string{l.agent, l.concentration, l.mass}, rows)

	ext := res.ExtinctionSystem
	var inventory [][]string
	switch in.ExtinctionType {
	case ExtinctionIG55:
		inventory = [][]string{
			{l.system, l.ig55},
			{l.cylinders, num("%d", ext.IG55Cylinders)},
			{l.nozzles, num("%d", ext.IG55Nozzles)},
		}
	case ExtinctionHifog:
		inventory = [][]string{
			{l.system, l.hifog},
			{l.tank, num("%d L", ext.HifogTankLiters)},
		}
	default:
		inventory = [][]string{{l.system, l.none}}
	}
	section(pdf, tr(l.inventory))
	table(pdf, tr, []string{l.item, l.quantity}, inventory)

	if msg, ok := gas.TemperatureWarning(room.Temperature); ok {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(200, 80, 0)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s: %s", l.warning, msg)), "", "L", false)
		pdf.Ln(2)
	}
	if in.Notes != "" {
		section(pdf, tr(l.notes))
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 6, tr(in.Notes), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	return pdf, nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, head []string, rows [][]string) {
	w := 180.0 / float64(len(head))
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(3, 105, 161)
	pdf.SetTextColor(255, 255, 255)
	for _, h := range head {
		pdf.CellFormat(w, 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(w, 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(5)
}
