package model

type Teacher struct {
	Id           uint64
	Availability Availability
}

func NewTeacher(id uint64, availability Availability) *Teacher {
	return &Teacher{Id: id, Availability: availability}
}

func (teacher *Teacher) Book(day, slot uint64, mask []uint64) bool {
	return teacher.Availability.Remove(day, slot, mask)
}

func (teacher *Teacher) clone() *Teacher {
	return &Teacher{Id: teacher.Id, Availability: teacher.Availability.Clone()}
}
