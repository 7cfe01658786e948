package datastore

type Data struct {
	value any
}

func NewData(value any) *Data {
	return &Data{
		value: value,
	}
}

func (data *Data) Value() any {
	return data.value
}
