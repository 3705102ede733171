package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// ParsePolicy tunes the validation applied while parsing payloads
type ParsePolicy struct {
	RequireTeacher bool   // Reject groups without teachers
	MaxSlot        uint64 // Largest slot index accepted in availabilities and allocations
}

func DefaultParsePolicy() ParsePolicy {
	return ParsePolicy{RequireTeacher: true, MaxSlot: 23}
}

// Request is a parsed payload: the problem to solve plus the requested algorithm name (empty when
// the payload leaves it out)
type Request struct {
	Problem *Problem
	Method  string
}

//** Raw payloads

type rawRequest struct {
	Method      string           `json:"method"`
	Rooms       []map[string]any `json:"rooms"`
	Groups      []map[string]any `json:"groups"`
	Teachers    []map[string]any `json:"teachers"`
	Clusters    []map[string]any `json:"clusters"`
	Allocations []map[string]any `json:"allocations"`
}

type rawTeacher struct {
	Id           *uint64             `json:"id" validate:"required"`
	Availability map[string][]uint64 `json:"availability" validate:"required"`
}

type rawRoom struct {
	Id           *uint64             `json:"id" validate:"required"`
	Capacity     *uint64             `json:"capacity" validate:"required"`
	Availability map[string][]uint64 `json:"availability" validate:"required"`
	Labels       []string            `json:"labels" validate:"required"`
}

type rawGroup struct {
	Id           *uint64             `json:"id" validate:"required"`
	Duration     *uint64             `json:"duration" validate:"required,min=1"`
	Capacity     *uint64             `json:"capacity" validate:"required"`
	Availability map[string][]uint64 `json:"availability" validate:"required"`
	Labels       [][][]string        `json:"labels"`
	TeacherIds   []uint64            `json:"teacher_ids"`
	Occurrence   []uint64            `json:"occurrence_desc"`
}

type rawCluster struct {
	Id       *uint64  `json:"id"`
	Range    []uint64 `json:"range" validate:"required"`
	GroupIds []uint64 `json:"groups_ids" validate:"required"`
}

type rawAllocation struct {
	GroupId *uint64  `json:"group_id" validate:"required"`
	RoomIds []uint64 `json:"room_ids" validate:"required"`
	Day     *uint64  `json:"day" validate:"required"`
	Slots   []uint64 `json:"slots" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New()
	// Report fields by their payload names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

//** Entry points

// InputFromJson parses the request stored in file
func InputFromJson(file string, policy ParsePolicy) (Request, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Request{}, fmt.Errorf("cannot read input file: %w", err)
	}
	return ParseRequest(data, policy)
}

// ParseRequest builds a Problem from a JSON payload. Entities are registered in the order rooms,
// groups, teachers, clusters and allocations; allocations are registered as established ones,
// without booking. Clusters lacking an id are numbered by their 1-based position.
func ParseRequest(data []byte, policy ParsePolicy) (Request, error) {
	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return Request{}, newIssueError(IssueParser, 0, "request is not a valid JSON object: %v", err)
	}

	var raw rawRequest
	if err := decode(payload, &raw); err != nil {
		return Request{}, newIssueError(IssueParser, 0, "request has incorrect format: %v", err)
	}

	problem := NewProblem()
	for _, data := range raw.Rooms {
		room, err := ParseRoom(data, policy)
		if err != nil {
			return Request{}, err
		}
		if err := problem.AddRoom(room); err != nil {
			return Request{}, err
		}
	}
	for _, data := range raw.Groups {
		group, err := ParseGroup(data, policy)
		if err != nil {
			return Request{}, err
		}
		if err := problem.AddGroup(group); err != nil {
			return Request{}, err
		}
	}
	for _, data := range raw.Teachers {
		teacher, err := ParseTeacher(data, policy)
		if err != nil {
			return Request{}, err
		}
		if err := problem.AddTeacher(teacher); err != nil {
			return Request{}, err
		}
	}
	for index, data := range raw.Clusters {
		cluster, err := ParseCluster(data, policy)
		if err != nil {
			return Request{}, err
		}
		if cluster.Id == 0 {
			cluster.Id = uint64(index + 1)
		}
		if err := problem.AddCluster(cluster); err != nil {
			return Request{}, err
		}
	}
	for _, data := range raw.Allocations {
		allocation, err := ParseAllocation(data, policy)
		if err != nil {
			return Request{}, err
		}
		problem.AddAllocation(allocation)
	}

	return Request{Problem: problem, Method: raw.Method}, nil
}

//** Entities

func ParseTeacher(data map[string]any, policy ParsePolicy) (*Teacher, error) {
	var raw rawTeacher
	if err := decodeEntity("Teacher", data, &raw); err != nil {
		return nil, err
	}
	availability, err := parseAvailability("Teacher", *raw.Id, raw.Availability, policy)
	if err != nil {
		return nil, err
	}
	return NewTeacher(*raw.Id, availability), nil
}

func ParseRoom(data map[string]any, policy ParsePolicy) (*Room, error) {
	var raw rawRoom
	if err := decodeEntity("Room", data, &raw); err != nil {
		return nil, err
	}
	availability, err := parseAvailability("Room", *raw.Id, raw.Availability, policy)
	if err != nil {
		return nil, err
	}
	return NewRoom(*raw.Id, *raw.Capacity, availability, raw.Labels), nil
}

func ParseGroup(data map[string]any, policy ParsePolicy) (*Group, error) {
	var raw rawGroup
	if err := decodeEntity("Group", data, &raw); err != nil {
		return nil, err
	}
	if policy.RequireTeacher && len(raw.TeacherIds) == 0 {
		return nil, newIssueError(IssueParser, *raw.Id, "Group has to have at least one teacher assigned. The group with id %v has no teachers", *raw.Id)
	}
	availability, err := parseAvailability("Group", *raw.Id, raw.Availability, policy)
	if err != nil {
		return nil, err
	}
	group, err := NewGroup(*raw.Id, *raw.Duration, *raw.Capacity, availability, raw.Labels, raw.TeacherIds, raw.Occurrence)
	if err != nil {
		return nil, newIssueError(IssueParser, *raw.Id, "%v", err)
	}
	return group, nil
}

// ParseCluster parses a cluster; a missing id is left as 0
func ParseCluster(data map[string]any, _ ParsePolicy) (*Cluster, error) {
	var raw rawCluster
	if err := decodeEntity("Cluster", data, &raw); err != nil {
		return nil, err
	}
	return NewCluster(lo.FromPtr(raw.Id), raw.Range, raw.GroupIds), nil
}

func ParseAllocation(data map[string]any, policy ParsePolicy) (Allocation, error) {
	var raw rawAllocation
	if err := decodeEntity("Allocation", data, &raw); err != nil {
		return Allocation{}, err
	}
	if slot, found := lo.Find(raw.Slots, func(slot uint64) bool { return slot > policy.MaxSlot }); found {
		return Allocation{}, newIssueError(IssueParser, *raw.GroupId, "Field 'slots' value in Allocation must be a list of integers between 0 and %v. Sent '%v'", policy.MaxSlot, slot)
	}
	allocation, err := NewAllocation(*raw.GroupId, raw.RoomIds, *raw.Day, raw.Slots)
	if err != nil {
		return Allocation{}, newIssueError(IssueParser, *raw.GroupId, "%v", err)
	}
	return allocation, nil
}

//** Helpers

func decode(input any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// decodeEntity decodes and validates the raw form of an entity, reporting failures as parser issues
func decodeEntity(entity string, data map[string]any, output any) error {
	id := entityId(data)
	if err := decode(data, output); err != nil {
		return newIssueError(IssueParser, id, "%v has fields of incorrect type: %v", entity, err)
	}

	if err := validate.Struct(output); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return newIssueError(IssueParser, id, "%v cannot be validated: %v", entity, err)
		}
		missing := lo.FilterMap(validationErrors, func(fieldError validator.FieldError, _ int) (string, bool) {
			return fmt.Sprintf("'%v'", fieldError.Field()), fieldError.Tag() == "required"
		})
		if len(missing) > 0 {
			return newIssueError(IssueParser, id, "%v is missing required fields: %v", entity, strings.Join(missing, ", "))
		}
		fieldError := validationErrors[0]
		return newIssueError(IssueParser, id, "Field '%v' value in %v does not satisfy '%v'. Sent '%v'", fieldError.Field(), entity, fieldError.Tag(), fieldError.Value())
	}
	return nil
}

func parseAvailability(entity string, id uint64, raw map[string][]uint64, policy ParsePolicy) (Availability, error) {
	slots := make(map[uint64][]uint64, len(raw))
	for key, daySlots := range raw {
		day, err := strconv.ParseUint(key, 10, 64)
		if err != nil || day < FirstDay || day > LastDay {
			return Availability{}, newIssueError(IssueParser, id, "Invalid key '%v' in availability data of %v with id=%v. Each key must be a day between %v and %v", key, entity, id, FirstDay, LastDay)
		}
		if slot, found := lo.Find(daySlots, func(slot uint64) bool { return slot > policy.MaxSlot }); found {
			return Availability{}, newIssueError(IssueParser, id, "Slots in availability of %v with id=%v must be integers between 0 and %v. Sent '%v'", entity, id, policy.MaxSlot, slot)
		}
		slots[day] = daySlots
	}

	availability, err := NewAvailability(slots)
	if err != nil {
		return Availability{}, newIssueError(IssueParser, id, "%v", err)
	}
	return availability, nil
}

// entityId extracts the id of a raw entity when it is a well-formed integer, 0 otherwise
func entityId(data map[string]any) uint64 {
	for _, key := range []string{"id", "group_id"} {
		if number, ok := data[key].(json.Number); ok {
			if id, err := strconv.ParseUint(number.String(), 10, 64); err == nil {
				return id
			}
		}
	}
	return 0
}
