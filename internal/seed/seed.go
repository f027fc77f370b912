package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/config"
)

var departmentTemplates = []struct{ name, code string }{
	{"Computer Engineering", "CSE"},
	{"Electrical Engineering", "EEE"},
	{"Mechanical Engineering", "MEE"},
	{"Chemical Engineering", "CHE"},
	{"Industrial Engineering", "INE"},
	{"Mathematics", "MAT"},
	{"Physics", "PHY"},
	{"Business Administration", "BUS"},
	{"Economics", "ECO"},
	{"Psychology", "PSY"},
	{"Biology", "BIO"},
	{"Literature", "LIT"},
}

var (
	familyNames = []string{"Kaya", "Demir", "Sahin", "Celik", "Yildiz", "Aydin", "Ozturk", "Arslan", "Dogan", "Kilic",
		"Smith", "Brown", "Garcia", "Miller", "Davis", "Wilson", "Moore", "Taylor", "Clark", "Lewis"}
	givenNames = []string{"Ada", "Alan", "Grace", "Linus", "Deniz", "Elif", "Emre", "Zeynep", "Mert", "Selin",
		"Can", "Ece", "Barbara", "Edsger", "Ken", "Donald", "Margaret", "Tony", "Niklaus", "Frances"}
	courseTopics = []string{
		"Data Structures", "Algorithms", "Operating Systems", "Computer Networks", "Databases", "Software Engineering",
		"Artificial Intelligence", "Machine Learning", "Circuit Theory", "Electromagnetics", "Signal Processing",
		"Microprocessors", "Thermodynamics", "Fluid Mechanics", "Control Systems", "Reaction Engineering",
		"Optimization", "Probability and Statistics", "Calculus", "Linear Algebra", "Numerical Analysis",
		"Classical Mechanics", "Quantum Mechanics", "Optics", "Accounting", "Corporate Finance", "Marketing",
		"Microeconomics", "Macroeconomics", "Econometrics", "Cognitive Psychology", "Social Psychology",
		"Molecular Biology", "Genetics", "Ecology", "Modern Literature",
	}
	courseSuffixes = []string{"I", "II", "Lab", "Seminar", "Project", "Workshop"}
	startTimes     = []models.TimeOfDay{
		models.MustTimeOfDay(9, 0),
		models.MustTimeOfDay(10, 30),
		models.MustTimeOfDay(13, 0),
		models.MustTimeOfDay(14, 30),
		models.MustTimeOfDay(16, 0),
	}
)

const (
	slotLength       = 90 * time.Minute
	minCapacity      = 20
	capacitySpread   = 41
	teachingWeekdays = 5
)

// Options controls the size and randomness of generated data
type Options struct {
	RandomSeed              int64
	Departments             int
	ProfessorsPerDepartment int
	Students                int
	Courses                 int
	// HotCourseCapacity is the capacity of the first course, the contention target.
	HotCourseCapacity int
}

// OptionsFromConfig maps the seed config section onto Options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RandomSeed:              cfg.Seed.RandomSeed,
		Departments:             cfg.Seed.Departments,
		ProfessorsPerDepartment: cfg.Seed.ProfessorsPerDepartment,
		Students:                cfg.Seed.Students,
		Courses:                 cfg.Seed.Courses,
		HotCourseCapacity:       cfg.Seed.HotCourseCapacity,
	}
}

// Summary counts the rows a run created
type Summary struct {
	Departments int
	Professors  int
	Students    int
	Courses     int
	Skipped     bool
}

// CreateDefaultData fills an empty catalog with generated departments,
// professors, students and courses in one transaction. It does nothing when
// courses already exist.
func CreateDefaultData(ctx context.Context, txManager repositories.TxManager, opts Options, lgr zerolog.Logger) (Summary, error) {
	var summary Summary
	started := time.Now()

	err := txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		existing, err := repos.Catalog.CountCourses(ctx)
		if err != nil {
			return err
		}
		if existing > 0 {
			summary.Skipped = true
			lgr.Info().Int64("courses", existing).Msg("Initial data generation skipped, catalog is not empty")
			return nil
		}

		g := &generator{
			opts:   opts,
			random: rand.New(rand.NewSource(opts.RandomSeed)),
			repos:  repos,
		}
		summary, err = g.run(ctx)
		return err
	})
	if err != nil {
		return Summary{}, fmt.Errorf("seed catalog: %w", err)
	}

	if !summary.Skipped {
		lgr.Info().
			Int("departments", summary.Departments).
			Int("professors", summary.Professors).
			Int("students", summary.Students).
			Int("courses", summary.Courses).
			Dur("elapsed", time.Since(started)).
			Msg("Initial data generation completed")
	}
	return summary, nil
}

type generator struct {
	opts   Options
	random *rand.Rand
	repos  repositories.TxRepositories
}

type professorSeed struct {
	id           int64
	departmentID int64
}

func (g *generator) run(ctx context.Context) (Summary, error) {
	departmentIDs, codes, err := g.departments(ctx)
	if err != nil {
		return Summary{}, err
	}
	professors, err := g.professors(ctx, departmentIDs)
	if err != nil {
		return Summary{}, err
	}
	if err := g.students(ctx, departmentIDs, len(professors)); err != nil {
		return Summary{}, err
	}
	if err := g.courses(ctx, departmentIDs, codes, professors); err != nil {
		return Summary{}, err
	}

	return Summary{
		Departments: len(departmentIDs),
		Professors:  len(professors),
		Students:    g.opts.Students,
		Courses:     g.opts.Courses,
	}, nil
}

func (g *generator) departments(ctx context.Context) ([]int64, map[int64]string, error) {
	ids := make([]int64, 0, g.opts.Departments)
	codes := make(map[int64]string, g.opts.Departments)

	for i := 0; i < g.opts.Departments; i++ {
		name, code := departmentTemplate(i)
		department := &models.Department{Name: name}
		if err := g.repos.Catalog.CreateDepartment(ctx, department); err != nil {
			return nil, nil, fmt.Errorf("department %q: %w", name, err)
		}
		ids = append(ids, department.ID)
		codes[department.ID] = code
	}
	return ids, codes, nil
}

func departmentTemplate(index int) (string, string) {
	if index < len(departmentTemplates) {
		return departmentTemplates[index].name, departmentTemplates[index].code
	}
	base := departmentTemplates[index%len(departmentTemplates)]
	return fmt.Sprintf("%s %d", base.name, index/len(departmentTemplates)+1), fmt.Sprintf("DEP%02d", index+1)
}

func (g *generator) professors(ctx context.Context, departmentIDs []int64) ([]professorSeed, error) {
	total := g.opts.ProfessorsPerDepartment * len(departmentIDs)
	seeds := make([]professorSeed, 0, total)

	for i := 0; i < total; i++ {
		departmentID := departmentIDs[i%len(departmentIDs)]
		professor := &models.Professor{Name: "Prof. " + g.name(i), DepartmentID: departmentID}
		if err := g.repos.Catalog.CreateProfessor(ctx, professor); err != nil {
			return nil, fmt.Errorf("professor %d: %w", i, err)
		}
		seeds = append(seeds, professorSeed{id: professor.ID, departmentID: departmentID})
	}
	return seeds, nil
}

func (g *generator) students(ctx context.Context, departmentIDs []int64, nameOffset int) error {
	admissionYear := time.Now().Year()

	for i := 0; i < g.opts.Students; i++ {
		student := &models.Student{
			StudentNumber: fmt.Sprintf("%04d%06d", admissionYear, i+1),
			Name:          g.name(i + nameOffset),
			DepartmentID:  departmentIDs[i%len(departmentIDs)],
		}
		if err := g.repos.Catalog.CreateStudent(ctx, student); err != nil {
			return fmt.Errorf("student %s: %w", student.StudentNumber, err)
		}
	}
	return nil
}

func (g *generator) courses(ctx context.Context, departmentIDs []int64, codes map[int64]string, professors []professorSeed) error {
	byDepartment := make(map[int64][]int64)
	all := make([]int64, 0, len(professors))
	for _, p := range professors {
		byDepartment[p.departmentID] = append(byDepartment[p.departmentID], p.id)
		all = append(all, p.id)
	}
	sequence := make(map[int64]int)

	for i := 0; i < g.opts.Courses; i++ {
		departmentID := departmentIDs[i%len(departmentIDs)]
		candidates := byDepartment[departmentID]
		if len(candidates) == 0 {
			candidates = all
		}
		sequence[departmentID]++

		course, err := models.NewCourse(
			fmt.Sprintf("%s%03d", codes[departmentID], 100+sequence[departmentID]),
			g.courseName(i),
			g.credits(),
			g.capacity(i),
			0,
			timeSlot(i),
			departmentID,
			candidates[i%len(candidates)],
		)
		if err != nil {
			return fmt.Errorf("course %d: %w", i, err)
		}
		if err := g.repos.Catalog.CreateCourse(ctx, course); err != nil {
			return fmt.Errorf("course %s: %w", course.Code, err)
		}
	}
	return nil
}

func (g *generator) name(offset int) string {
	given := givenNames[(offset+g.random.Intn(len(givenNames)))%len(givenNames)]
	family := familyNames[(offset+g.random.Intn(len(familyNames)))%len(familyNames)]
	return given + " " + family
}

func (g *generator) courseName(index int) string {
	topic := courseTopics[(index+g.random.Intn(len(courseTopics)))%len(courseTopics)]
	return topic + " " + courseSuffixes[index%len(courseSuffixes)]
}

// credits is 2 for 20%, 3 for 60% and 4 for 20% of courses.
func (g *generator) credits() int {
	roll := g.random.Intn(10)
	switch {
	case roll < 2:
		return 2
	case roll < 8:
		return 3
	default:
		return 4
	}
}

func (g *generator) capacity(index int) int {
	if index == 0 {
		return g.opts.HotCourseCapacity
	}
	return minCapacity + g.random.Intn(capacitySpread)
}

// timeSlot spreads courses over weekdays first, then over the start times.
func timeSlot(index int) models.TimeSlot {
	day := time.Weekday(index%teachingWeekdays + 1)
	start := startTimes[(index/teachingWeekdays)%len(startTimes)]
	return models.TimeSlot{
		DayOfWeek: day,
		StartTime: start,
		EndTime:   start + models.TimeOfDay(slotLength/time.Minute),
	}
}
